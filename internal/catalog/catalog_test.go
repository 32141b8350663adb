package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatrix(t *testing.T) {
	c := Default()

	assert.Len(t, c.Regions, 5)
	assert.Len(t, c.Categories, 5)

	assert.True(t, c.HasRegion("san_francisco"))
	assert.True(t, c.HasRegion("contra_costa"))
	assert.False(t, c.HasRegion("csv"))

	assert.True(t, c.HasCategory("religion"))
	assert.True(t, c.HasCategory("bookstores"))
	assert.False(t, c.HasCategory("unknown"))
}

func TestDefaultAreaIDs(t *testing.T) {
	c := Default()

	want := map[string]int64{
		"alameda":       3600396499,
		"contra_costa":  3600396462,
		"san_francisco": 3600111968,
		"san_mateo":     3600396498,
		"santa_clara":   3600396501,
	}
	for _, r := range c.Regions {
		assert.Equal(t, want[r.Name], r.AreaID, r.Name)
	}
}

func TestMeaningful(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		tags map[string]string
		want bool
	}{
		{"no tags", nil, false},
		{"empty tags", map[string]string{}, false},
		{"allow-list key", map[string]string{"name": "City Lights"}, true},
		{"addr key", map[string]string{"addr:street": "Columbus Ave"}, true},
		{"structural only", map[string]string{"source": "survey", "wikidata": "Q123"}, false},
		{"gnis only", map[string]string{"gnis:feature_id": "12345"}, false},
		{"unknown non-structural key", map[string]string{"roof:shape": "flat"}, true},
		{"mixed structural and descriptive", map[string]string{"fixme": "check", "amenity": "theatre"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Meaningful(tc.tags))
		})
	}
}

func TestMeaningfulStructuralOnly(t *testing.T) {
	c := Default()

	// Every key matches a structural prefix and none is on the allow-list.
	tags := map[string]string{
		"wikipedia": "en:Somewhere",
		"note":      "imported",
		"fixme":     "verify",
	}
	assert.False(t, c.Meaningful(tags))
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	yaml := `
regions:
  - name: test_county
    area_id: 3600000001
meaningful_keys:
  - name
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	// Overridden sections.
	require.Len(t, c.Regions, 1)
	assert.Equal(t, "test_county", c.Regions[0].Name)
	assert.Equal(t, int64(3600000001), c.Regions[0].AreaID)
	assert.Equal(t, []string{"name"}, c.MeaningfulKeys)

	// Omitted sections fall back to defaults.
	assert.Len(t, c.Categories, 5)
	assert.Equal(t, Default().StructuralPrefixes, c.StructuralPrefixes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions: [name: {"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	c, err := Resolve("")
	require.NoError(t, err)
	assert.Len(t, c.Regions, 5)
}
