package overpass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDecode(t *testing.T) {
	raw := []byte(`{
		"version": 0.6,
		"generator": "Overpass API",
		"osm3s": {"timestamp_osm_base": "2024-05-01T00:00:00Z", "copyright": "ODbL"},
		"elements": [
			{"type": "node", "id": 1, "lat": 37.77, "lon": -122.41, "tags": {"name": "A"}},
			{"type": "way", "id": 2, "nodes": [1, 9], "tags": {"building": "yes"}},
			{"type": "relation", "id": 3, "members": [{"type": "way", "ref": 2, "role": "outer"}]}
		]
	}`)

	resp, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, 0.6, resp.Version)
	assert.Equal(t, "Overpass API", resp.Generator)
	require.NotNil(t, resp.OSM3S)
	assert.Equal(t, "2024-05-01T00:00:00Z", resp.OSM3S.TimestampOSMBase)
	require.Len(t, resp.Elements, 3)

	node := resp.Elements[0]
	assert.Equal(t, TypeNode, node.Type)
	require.NotNil(t, node.Lat)
	assert.Equal(t, 37.77, *node.Lat)

	way := resp.Elements[1]
	assert.Equal(t, []int64{1, 9}, way.Nodes)
	assert.Nil(t, way.Lat)

	rel := resp.Elements[2]
	require.Len(t, rel.Members, 1)
	assert.Equal(t, int64(2), rel.Members[0].Ref)
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte("<html>busy</html>"))
	assert.Error(t, err)
}

func TestBuildNodeLookup(t *testing.T) {
	elements := []Element{
		{Type: TypeNode, ID: 1, Lat: ptr(37.1), Lon: ptr(-122.1)},
		{Type: TypeNode, ID: 2}, // no coordinates
		{Type: TypeWay, ID: 3, Nodes: []int64{1}},
	}

	lookup := BuildNodeLookup(elements)
	require.Len(t, lookup, 1)
	assert.Equal(t, Coords{Lat: 37.1, Lon: -122.1}, lookup[1])
}

func TestResolveNode(t *testing.T) {
	el := Element{Type: TypeNode, ID: 1, Lat: ptr(37.5), Lon: ptr(-122.3)}

	c, ok := NodeLookup{}.Resolve(el)
	require.True(t, ok)
	assert.Equal(t, 37.5, c.Lat)
	assert.Equal(t, -122.3, c.Lon)
}

func TestResolveWay(t *testing.T) {
	lookup := NodeLookup{7: {Lat: 37.9, Lon: -122.5}}
	el := Element{Type: TypeWay, ID: 2, Nodes: []int64{7, 8}}

	c, ok := lookup.Resolve(el)
	require.True(t, ok)
	assert.Equal(t, 37.9, c.Lat)
	assert.Equal(t, -122.5, c.Lon)
}

func TestResolveWayMissingReference(t *testing.T) {
	el := Element{Type: TypeWay, ID: 2, Nodes: []int64{99}}

	_, ok := NodeLookup{}.Resolve(el)
	assert.False(t, ok)
}

func TestResolveRelation(t *testing.T) {
	lookup := NodeLookup{11: {Lat: 38.0, Lon: -121.9}}
	el := Element{Type: TypeRelation, ID: 3, Members: []Member{
		{Type: TypeWay, Ref: 5, Role: "outer"},
		{Type: TypeNode, Ref: 11, Role: "admin_centre"},
	}}

	c, ok := lookup.Resolve(el)
	require.True(t, ok)
	assert.Equal(t, 38.0, c.Lat)
}

func TestResolveRelationNoNodeMembers(t *testing.T) {
	el := Element{Type: TypeRelation, ID: 3, Members: []Member{
		{Type: TypeWay, Ref: 5, Role: "outer"},
	}}

	_, ok := NodeLookup{}.Resolve(el)
	assert.False(t, ok)
}
