// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// FormatCitation renders a citation record in the requested reference
// style. Unrecognized styles fall back to Vancouver, which is also the
// default preference.
func FormatCitation(rec types.CitationRecord, style types.CitationStyle) string {
	switch style {
	case types.StyleAPA:
		return fmt.Sprintf("%s (%s). %s %s.", joinAuthors(rec.Authors), rec.Year, ensurePeriod(rec.Title), rec.Journal)
	case types.StyleMLA:
		return fmt.Sprintf("%s. \"%s\" %s, %s.", mlaAuthors(rec.Authors), ensurePeriod(rec.Title), rec.Journal, rec.Year)
	case types.StyleChicago:
		return fmt.Sprintf("%s. \"%s\" %s (%s).", joinAuthors(rec.Authors), ensurePeriod(rec.Title), rec.Journal, rec.Year)
	default:
		return fmt.Sprintf("%s. %s %s. %s.", joinAuthors(rec.Authors), ensurePeriod(rec.Title), rec.Journal, rec.PubDate)
	}
}

// joinAuthors comma-joins the author names.
func joinAuthors(authors []string) string {
	if len(authors) == 0 {
		return types.UnknownAuthor
	}
	return strings.Join(authors, ", ")
}

// mlaAuthors renders "First Author, et al." for multi-author records,
// with the lead author's name inverted (family name first).
func mlaAuthors(authors []string) string {
	if len(authors) == 0 {
		return types.UnknownAuthor
	}
	lead := invertName(authors[0])
	if len(authors) == 1 {
		return lead
	}
	return lead + ", et al"
}

// invertName converts "Given Family" to "Family, Given". It splits on the
// last space; single-token names pass through unchanged.
func invertName(name string) string {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return name
	}
	return name[idx+1:] + ", " + name[:idx]
}

func ensurePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") || strings.HasSuffix(s, "?") || strings.HasSuffix(s, "!") {
		return s
	}
	return s + "."
}
