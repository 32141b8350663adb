package overpass

import (
	"fmt"
	"strings"
)

// BuildAreaQuery builds an Overpass QL query that unions all elements
// matching any of the tag filters within the given area. Filters are either
// "key=value" pairs or bare keys (presence check); both are passed through
// verbatim as nwr filter clauses.
func BuildAreaQuery(areaID int64, filters []string) string {
	var b strings.Builder
	b.WriteString("[out:json];\n")
	fmt.Fprintf(&b, "area(%d)->.searchArea;\n", areaID)
	b.WriteString("(\n")
	for _, f := range filters {
		fmt.Fprintf(&b, "  nwr[%s](area.searchArea);\n", f)
	}
	b.WriteString(");\nout meta;")
	return b.String()
}
