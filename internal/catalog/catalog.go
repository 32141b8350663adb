// Package catalog defines the fixed survey matrix: which regions are queried,
// which amenity categories are queried in each, and which tag keys mark an
// element as worth keeping. All three are configuration — the built-in defaults
// can be replaced wholesale by a YAML file.
package catalog

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Region is a named geographic area scoped by an Overpass area ID
// (OSM relation ID + 3600000000).
type Region struct {
	Name   string `yaml:"name"`
	AreaID int64  `yaml:"area_id"`
}

// Category is a named amenity class defined by a set of Overpass tag filters.
// Each filter is either "key=value" or a bare "key" (presence check).
type Category struct {
	Name    string   `yaml:"name"`
	Filters []string `yaml:"filters"`
}

// Catalog holds the full survey matrix plus the tag-key inclusion policy.
type Catalog struct {
	Regions    []Region   `yaml:"regions"`
	Categories []Category `yaml:"categories"`

	// MeaningfulKeys are tag keys that mark an element as descriptive.
	MeaningfulKeys []string `yaml:"meaningful_keys"`

	// StructuralPrefixes mark tag keys that carry only provenance or editor
	// bookkeeping. An element whose every key is structural is excluded.
	StructuralPrefixes []string `yaml:"structural_prefixes"`
}

// Default returns the built-in survey catalog: five Bay Area counties crossed
// with five community amenity categories.
func Default() *Catalog {
	return &Catalog{
		Regions: []Region{
			{Name: "alameda", AreaID: 3600396499},
			{Name: "contra_costa", AreaID: 3600396462},
			{Name: "san_francisco", AreaID: 3600111968},
			{Name: "san_mateo", AreaID: 3600396498},
			{Name: "santa_clara", AreaID: 3600396501},
		},
		Categories: []Category{
			{Name: "religion", Filters: []string{
				"amenity=place_of_worship",
				"building=temple",
				"building=synagogue",
				"building=mosque",
				"building=church",
				"building=cathedral",
				"building=chapel",
				"building=gurdwara",
				"religion",
				"denomination",
			}},
			{Name: "social_community", Filters: []string{
				"amenity=social_facility",
				"amenity=arts_centre",
				"amenity=community_centre",
			}},
			{Name: "events", Filters: []string{
				"amenity=theatre",
				"amenity=nightclub",
				"amenity=events_venue",
				"amenity=conference_centre",
				"leisure=stadium",
				"amenity=marketplace",
				"amenity=exhibition_centre",
				"amenity=festival_grounds",
				"leisure=festival_grounds",
			}},
			{Name: "bikeshops", Filters: []string{"shop=bicycle"}},
			{Name: "bookstores", Filters: []string{"shop=books"}},
		},
		MeaningfulKeys: []string{
			"name", "amenity", "shop", "building", "leisure", "religion",
			"phone", "website", "addr:housenumber", "addr:street",
			"addr:city", "email", "opening_hours",
		},
		StructuralPrefixes: []string{
			"source", "gnis", "wikidata", "wikipedia", "note", "fixme",
		},
	}
}

// Load reads a catalog override from a YAML file. Sections left empty in the
// file fall back to the built-in defaults, so a file may override just the
// meaningful-key policy without restating the survey matrix.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse %s", path)
	}

	def := Default()
	if len(c.Regions) == 0 {
		c.Regions = def.Regions
	}
	if len(c.Categories) == 0 {
		c.Categories = def.Categories
	}
	if len(c.MeaningfulKeys) == 0 {
		c.MeaningfulKeys = def.MeaningfulKeys
	}
	if len(c.StructuralPrefixes) == 0 {
		c.StructuralPrefixes = def.StructuralPrefixes
	}

	return &c, nil
}

// Resolve returns the catalog from the given path, or the defaults when the
// path is empty.
func Resolve(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// HasRegion reports whether name is a known region.
func (c *Catalog) HasRegion(name string) bool {
	for _, r := range c.Regions {
		if r.Name == name {
			return true
		}
	}
	return false
}

// HasCategory reports whether name is a known category.
func (c *Catalog) HasCategory(name string) bool {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// Meaningful reports whether a tag map carries at least one descriptive key:
// either a key on the allow-list, or any key that does not start with a
// structural prefix. Elements with no tags are never meaningful.
func (c *Catalog) Meaningful(tags map[string]string) bool {
	if len(tags) == 0 {
		return false
	}

	for key := range tags {
		if c.isAllowed(key) || !c.isStructural(key) {
			return true
		}
	}
	return false
}

func (c *Catalog) isAllowed(key string) bool {
	for _, k := range c.MeaningfulKeys {
		if key == k {
			return true
		}
	}
	return false
}

func (c *Catalog) isStructural(key string) bool {
	for _, p := range c.StructuralPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
