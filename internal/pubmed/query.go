// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"fmt"
	"sort"
	"strings"
)

// Filters holds the optional query refinements from the search form.
type Filters struct {
	// StartYear/EndYear bound the publication date range. The range is
	// applied only when both are set.
	StartYear int
	EndYear   int

	// PublicationTypes lists the display names of requested publication
	// type filters (keys of pubTypeTags).
	PublicationTypes []string
}

// pubTypeTags maps display names to PubMed query fragments. "Books and
// Documents" has no single [PT] tag upstream, so it ORs two quoted terms.
var pubTypeTags = map[string]string{
	"Books and Documents":         `"Book" OR "Document"`,
	"Clinical Trial":              `"Clinical Trial"[PT]`,
	"Meta-Analysis":               `"Meta-Analysis"[PT]`,
	"Randomized Controlled Trial": `"Randomized Controlled Trial"[PT]`,
	"Review":                      `"Review"[PT]`,
	"Systematic Review":           `"Systematic Review"[PT]`,
}

// PublicationTypeNames returns the supported filter names in stable order,
// for rendering the search form.
func PublicationTypeNames() []string {
	names := make([]string, 0, len(pubTypeTags))
	for name := range pubTypeTags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildQuery augments a base query with the date-range and publication-type
// filters. Date ranges append (startYear[PDAT]:endYear[PDAT]); publication
// types append an OR-group joined to the base query with AND. Unknown
// publication type names are quoted and tagged [PT] as-is.
func BuildQuery(base string, f Filters) string {
	q := strings.TrimSpace(base)

	if f.StartYear > 0 && f.EndYear > 0 {
		q += fmt.Sprintf(" AND (%d[PDAT]:%d[PDAT])", f.StartYear, f.EndYear)
	}

	var tags []string
	for _, name := range f.PublicationTypes {
		if tag, ok := pubTypeTags[name]; ok {
			tags = append(tags, tag)
		} else if name != "" {
			tags = append(tags, fmt.Sprintf("%q[PT]", name))
		}
	}
	if len(tags) > 0 {
		q += " AND (" + strings.Join(tags, " OR ") + ")"
	}

	return q
}
