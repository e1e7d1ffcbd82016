// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagdoc

import (
	"strings"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Section is one renderable block of a tagged document. Exactly one of
// Body and Items is populated.
type Section struct {
	Heading string
	Body    string
	Items   []string
}

// Render converts a tagged document into display sections. Opaque
// fallbacks (Content set instead of the typed fields) render as a single
// body section under the document's heading.
func Render(doc types.TaggedDocument) []Section {
	switch doc.Kind {
	case types.DocTermExplanation:
		if len(doc.Terms) == 0 {
			return []Section{{Heading: "Medical Term", Body: doc.Content}}
		}
		entry := doc.Terms[0]
		heading := "Medical Term"
		if entry.Term != "" {
			heading = "Medical Term: " + entry.Term
		}
		return []Section{{Heading: heading, Body: entry.Definition}}

	case types.DocMultipleTerms:
		if len(doc.Terms) == 0 {
			return []Section{{Heading: "Medical Terms", Body: doc.Content}}
		}
		items := make([]string, len(doc.Terms))
		for i, e := range doc.Terms {
			items[i] = formatTermItem(e)
		}
		return []Section{{Heading: "Medical Terms", Items: items}}

	case types.DocMethodology:
		if doc.Report == nil {
			return []Section{{Heading: "Methodology Analysis", Body: doc.Content}}
		}
		return []Section{
			{Heading: "Study Design", Body: doc.Report.Design},
			{Heading: "Key Methodological Elements", Body: doc.Report.Methods},
			{Heading: "Strengths", Body: doc.Report.Strengths},
			{Heading: "Limitations", Body: doc.Report.Limitations},
		}

	case types.DocResearchGaps:
		if len(doc.Gaps) == 0 {
			return []Section{{Heading: "Potential Research Gaps", Body: doc.Content}}
		}
		return []Section{{Heading: "Potential Research Gaps", Items: doc.Gaps}}

	case types.DocStudyComparison:
		return []Section{{Heading: "Study Comparison", Body: doc.Content}}

	case types.DocLiteratureReview:
		return []Section{{Heading: "Literature Review", Body: doc.Content}}

	default:
		return []Section{{Body: doc.Content}}
	}
}

func formatTermItem(e types.TermEntry) string {
	if e.Definition == "" {
		return e.Term
	}
	if e.Term == "" {
		return e.Definition
	}
	return e.Term + ": " + e.Definition
}

// PlainText flattens a tagged document to plain text, used when storing
// assistant turns and for exports.
func PlainText(doc types.TaggedDocument) string {
	var b strings.Builder
	for i, sec := range Render(doc) {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if sec.Heading != "" {
			b.WriteString(sec.Heading)
			b.WriteString("\n")
		}
		if sec.Body != "" {
			b.WriteString(sec.Body)
		}
		for j, item := range sec.Items {
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- ")
			b.WriteString(item)
		}
	}
	return b.String()
}
