// Package overpass provides a client for the Overpass API: query building,
// rate-limited HTTP submission with retry, and decoding of the returned
// OSM elements.
package overpass

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Response is the decoded body of one Overpass query.
type Response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	OSM3S     *Metadata `json:"osm3s,omitempty"`
	Elements  []Element `json:"elements"`
}

// Metadata holds the osm3s response metadata block.
type Metadata struct {
	TimestampOSMBase   string `json:"timestamp_osm_base,omitempty"`
	TimestampAreasBase string `json:"timestamp_areas_base,omitempty"`
	Copyright          string `json:"copyright,omitempty"`
}

// Element is one OSM entity: a node, way, or relation. Nodes carry their own
// coordinates; ways and relations reference member nodes instead. Lat/Lon are
// pointers so an absent coordinate is distinguishable from zero.
type Element struct {
	ID      int64             `json:"id"`
	Type    string            `json:"type"`
	Lat     *float64          `json:"lat,omitempty"`
	Lon     *float64          `json:"lon,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Nodes   []int64           `json:"nodes,omitempty"`
	Members []Member          `json:"members,omitempty"`
}

// Member is one entry of a relation's member list.
type Member struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// Element type tags as returned by Overpass.
const (
	TypeNode     = "node"
	TypeWay      = "way"
	TypeRelation = "relation"
)

// Decode parses a raw Overpass response body.
func Decode(raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return &resp, nil
}

// Coords is a latitude/longitude pair.
type Coords struct {
	Lat float64
	Lon float64
}

// NodeLookup maps node IDs to their coordinates. It is built once per response
// and treated as immutable afterwards.
type NodeLookup map[int64]Coords

// BuildNodeLookup indexes the coordinates of every node in the element list.
func BuildNodeLookup(elements []Element) NodeLookup {
	lookup := make(NodeLookup)
	for _, el := range elements {
		if el.Type == TypeNode && el.Lat != nil && el.Lon != nil {
			lookup[el.ID] = Coords{Lat: *el.Lat, Lon: *el.Lon}
		}
	}
	return lookup
}

// Resolve returns the coordinates for an element. Nodes use their own
// position; ways use their first referenced node and relations their first
// node-typed member. ok is false when no coordinate could be resolved, e.g.
// the referenced node lies outside the response.
func (l NodeLookup) Resolve(el Element) (Coords, bool) {
	switch el.Type {
	case TypeNode:
		if el.Lat != nil && el.Lon != nil {
			return Coords{Lat: *el.Lat, Lon: *el.Lon}, true
		}
	case TypeWay:
		if len(el.Nodes) > 0 {
			c, ok := l[el.Nodes[0]]
			return c, ok
		}
	case TypeRelation:
		for _, m := range el.Members {
			if m.Type == TypeNode {
				c, ok := l[m.Ref]
				return c, ok
			}
		}
	}
	return Coords{}, false
}
