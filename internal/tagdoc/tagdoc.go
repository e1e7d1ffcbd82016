// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tagdoc converts free-text model output into typed tagged
// documents and tagged documents back into renderable sections.
//
// Extraction is heuristic pattern matching over natural-language
// generation, not a parser for a fixed grammar. A mis-parse degrades to
// the opaque-content fallback rather than failing; callers should treat
// that as normal behavior. The extraction strategy lives entirely behind
// Parse so it can be swapped without touching renderers.
package tagdoc

import (
	"regexp"
	"strings"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// emphasisRe matches markdown bold markers the model sometimes emits
// despite being told not to.
var emphasisRe = regexp.MustCompile(`\*\*|__`)

// listItemRe matches a numbered or bulleted list line and captures the text.
var listItemRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-•*])\s+(.+)$`)

// stripEmphasis removes markdown bold markers.
func stripEmphasis(s string) string {
	return emphasisRe.ReplaceAllString(s, "")
}

// Parse extracts a tagged document of the requested kind from raw model
// output. Unknown kinds yield a general document carrying the raw text.
func Parse(kind types.DocumentKind, raw string) types.TaggedDocument {
	raw = strings.TrimSpace(raw)
	switch kind {
	case types.DocTermExplanation:
		return parseTermExplanation(raw)
	case types.DocMultipleTerms:
		return parseMultipleTerms(raw)
	case types.DocMethodology:
		return parseMethodology(raw)
	case types.DocResearchGaps:
		return parseResearchGaps(raw)
	case types.DocStudyComparison, types.DocLiteratureReview:
		return types.TaggedDocument{Kind: kind, Content: raw}
	default:
		return types.TaggedDocument{Kind: types.DocGeneral, Content: raw}
	}
}

// parseTermExplanation splits on the first colon to separate term from
// definition. Without a colon the whole text becomes the definition and
// the term stays empty.
func parseTermExplanation(raw string) types.TaggedDocument {
	term, def, found := strings.Cut(raw, ":")
	if !found {
		term, def = "", raw
	}
	return types.TaggedDocument{
		Kind: types.DocTermExplanation,
		Terms: []types.TermEntry{{
			Term:       stripEmphasis(strings.TrimSpace(term)),
			Definition: strings.TrimSpace(def),
		}},
	}
}

// termHeadRe matches a "term:" lead on the first line of a block. Terms
// are word characters, spaces, and hyphens, optionally wrapped in
// markdown emphasis.
var termHeadRe = regexp.MustCompile(`^(?:\*\*|__)?([\w][\w\s-]*?)(?:\*\*|__)?:\s*(.*)$`)

// parseMultipleTerms first matches "term: definition" blocks separated by
// blank lines, then falls back to a bulleted/numbered list pattern, then
// to the whole text as one opaque block.
func parseMultipleTerms(raw string) types.TaggedDocument {
	doc := types.TaggedDocument{Kind: types.DocMultipleTerms}

	for _, block := range splitParagraphs(raw) {
		lines := strings.SplitN(block, "\n", 2)
		m := termHeadRe.FindStringSubmatch(strings.TrimSpace(lines[0]))
		if m == nil {
			continue
		}
		def := m[2]
		if len(lines) > 1 {
			def = strings.TrimSpace(def + " " + strings.Join(strings.Fields(lines[1]), " "))
		}
		doc.Terms = append(doc.Terms, types.TermEntry{
			Term:       stripEmphasis(strings.TrimSpace(m[1])),
			Definition: strings.TrimSpace(def),
		})
	}
	if len(doc.Terms) > 0 {
		return doc
	}

	// List fallback: one entry per bullet/numbered line.
	for _, line := range strings.Split(raw, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := stripEmphasis(strings.TrimSpace(m[1]))
		term, def, found := strings.Cut(item, ":")
		if !found {
			term, def = item, ""
		}
		doc.Terms = append(doc.Terms, types.TermEntry{
			Term:       strings.TrimSpace(term),
			Definition: strings.TrimSpace(def),
		})
	}
	if len(doc.Terms) > 0 {
		return doc
	}

	doc.Content = raw
	return doc
}

// Placeholder strings for methodology sections the heuristics could not
// locate.
const (
	placeholderDesign      = "Study design was not clearly identified."
	placeholderMethods     = "Methodological details were not explicitly described."
	placeholderStrengths   = "Specific strengths were not highlighted in the analysis."
	placeholderLimitations = "No specific limitations were identified in the analysis."
)

// methodology heading keywords, matched case-insensitively against the
// start of a line.
var methodologyHeads = map[string][]string{
	"design":      {"study design", "research design", "type of design", "design type", "design"},
	"methods":     {"key methodological elements", "methodological elements", "methodology", "methods", "approach"},
	"strengths":   {"strengths", "advantages", "benefits", "positive aspects"},
	"limitations": {"limitations", "limitation", "weaknesses", "disadvantages", "challenges", "drawbacks", "constraints"},
}

// methodologyOrder fixes the probe order so "study design" wins over the
// bare "design" keyword and sections classify deterministically.
var methodologyOrder = []string{"design", "methods", "strengths", "limitations"}

// headingPrefixRe strips list numbering and emphasis in front of a
// candidate heading, e.g. "1. Study Design:" or "**Methods**:".
var headingPrefixRe = regexp.MustCompile(`^\s*(?:\d+[.)])?\s*`)

// parseMethodology locates the four labeled report sections by
// case-insensitive heading keyword search. Sections not found get explicit
// placeholders; when none of the four are found the whole report degrades
// to a single opaque content block.
func parseMethodology(raw string) types.TaggedDocument {
	sections := map[string][]string{}
	current := ""

	for _, line := range strings.Split(raw, "\n") {
		head, rest := matchMethodologyHeading(line)
		if head != "" {
			current = head
			if _, seen := sections[current]; !seen {
				sections[current] = nil
			}
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], strings.TrimSpace(line))
		}
	}

	if len(sections) == 0 {
		return types.TaggedDocument{Kind: types.DocMethodology, Content: raw}
	}

	join := func(key, placeholder string) string {
		text := strings.TrimSpace(strings.Join(sections[key], " "))
		if text == "" {
			return placeholder
		}
		return text
	}

	return types.TaggedDocument{
		Kind: types.DocMethodology,
		Report: &types.MethodologyReport{
			Design:      join("design", placeholderDesign),
			Methods:     join("methods", placeholderMethods),
			Strengths:   join("strengths", placeholderStrengths),
			Limitations: join("limitations", placeholderLimitations),
		},
	}
}

// matchMethodologyHeading reports which section a line introduces, if any,
// along with text following the heading's colon on the same line. A
// heading is a keyword followed by a colon, or a short keyword-led line
// on its own.
func matchMethodologyHeading(line string) (section, rest string) {
	candidate := strings.TrimSpace(stripEmphasis(headingPrefixRe.ReplaceAllString(line, "")))

	head, after, hasColon := strings.Cut(candidate, ":")
	if !hasColon {
		// Without a colon, only short lines qualify as headings.
		if len(strings.Fields(candidate)) > 5 {
			return "", ""
		}
		head, after = candidate, ""
	}

	lower := strings.ToLower(strings.TrimSpace(head))
	for _, sec := range methodologyOrder {
		for _, kw := range methodologyHeads[sec] {
			if keywordLeads(lower, kw) {
				return sec, strings.TrimSpace(after)
			}
		}
	}
	return "", ""
}

// keywordLeads reports whether s starts with kw at a word boundary, so
// "design" matches "Design" and "Design of the study" but not "Designing".
func keywordLeads(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}
	if len(s) == len(kw) {
		return true
	}
	next := s[len(kw)]
	return !(next >= 'a' && next <= 'z') && !(next >= '0' && next <= '9')
}

// parseResearchGaps splits on numbered/bulleted list markers, falling back
// to blank-line-delimited paragraphs when no markers are found.
func parseResearchGaps(raw string) types.TaggedDocument {
	doc := types.TaggedDocument{Kind: types.DocResearchGaps}

	for _, line := range strings.Split(raw, "\n") {
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			doc.Gaps = append(doc.Gaps, stripEmphasis(strings.TrimSpace(m[1])))
		} else if n := len(doc.Gaps); n > 0 && strings.TrimSpace(line) != "" {
			// Continuation line of the current gap.
			doc.Gaps[n-1] += " " + strings.TrimSpace(line)
		}
	}
	if len(doc.Gaps) > 0 {
		return doc
	}

	doc.Gaps = splitParagraphs(raw)
	if len(doc.Gaps) == 0 {
		doc.Content = raw
	}
	return doc
}

// splitParagraphs splits text on blank lines, trimming each paragraph and
// dropping empty ones.
func splitParagraphs(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, "\n\n") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
