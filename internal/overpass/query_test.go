package overpass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAreaQuery(t *testing.T) {
	query := BuildAreaQuery(3600111968, []string{"shop=books", "religion"})

	want := "[out:json];\n" +
		"area(3600111968)->.searchArea;\n" +
		"(\n" +
		"  nwr[shop=books](area.searchArea);\n" +
		"  nwr[religion](area.searchArea);\n" +
		");\n" +
		"out meta;"
	assert.Equal(t, want, query)
}

func TestBuildAreaQueryNoFilters(t *testing.T) {
	query := BuildAreaQuery(3600396499, nil)

	assert.Contains(t, query, "[out:json];")
	assert.Contains(t, query, "area(3600396499)->.searchArea;")
	assert.NotContains(t, query, "nwr[")
}
