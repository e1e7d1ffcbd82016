// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tagdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// --- term explanation ---

func TestParseTermExplanation(t *testing.T) {
	doc := Parse(types.DocTermExplanation, "Hypertension: high blood pressure")
	require.Len(t, doc.Terms, 1)
	assert.Equal(t, "Hypertension", doc.Terms[0].Term)
	assert.Equal(t, "high blood pressure", doc.Terms[0].Definition)
}

func TestParseTermExplanationNoColon(t *testing.T) {
	doc := Parse(types.DocTermExplanation, "just text")
	require.Len(t, doc.Terms, 1)
	assert.Equal(t, "", doc.Terms[0].Term)
	assert.Equal(t, "just text", doc.Terms[0].Definition)
}

func TestParseTermExplanationStripsEmphasis(t *testing.T) {
	doc := Parse(types.DocTermExplanation, "**Dyspnea**: shortness of breath")
	require.Len(t, doc.Terms, 1)
	assert.Equal(t, "Dyspnea", doc.Terms[0].Term)
}

// --- multiple terms ---

func TestParseMultipleTermsBlocks(t *testing.T) {
	raw := "Hypertension: high blood pressure\n\nTachycardia: fast heart rate"
	doc := Parse(types.DocMultipleTerms, raw)
	require.Len(t, doc.Terms, 2)
	assert.Equal(t, types.TermEntry{Term: "Hypertension", Definition: "high blood pressure"}, doc.Terms[0])
	assert.Equal(t, types.TermEntry{Term: "Tachycardia", Definition: "fast heart rate"}, doc.Terms[1])
}

func TestParseMultipleTermsListFallback(t *testing.T) {
	raw := "- Hypertension: high blood pressure\n- Tachycardia: fast heart rate"
	doc := Parse(types.DocMultipleTerms, raw)
	require.Len(t, doc.Terms, 2)
	assert.Equal(t, "Hypertension", doc.Terms[0].Term)
	assert.Equal(t, "fast heart rate", doc.Terms[1].Definition)
}

func TestParseMultipleTermsNumberedList(t *testing.T) {
	raw := "1. Dyspnea: shortness of breath\n2. Edema: swelling"
	doc := Parse(types.DocMultipleTerms, raw)
	require.Len(t, doc.Terms, 2)
	assert.Equal(t, "Edema", doc.Terms[1].Term)
}

func TestParseMultipleTermsOpaqueFallback(t *testing.T) {
	raw := "I could not identify any individual terms in that passage."
	doc := Parse(types.DocMultipleTerms, raw)
	assert.Empty(t, doc.Terms)
	assert.Equal(t, raw, doc.Content)

	sections := Render(doc)
	require.Len(t, sections, 1)
	assert.Equal(t, raw, sections[0].Body)
}

func TestParseMultipleTermsMultilineDefinition(t *testing.T) {
	raw := "Hypertension: high blood\npressure over time\n\nEdema: swelling"
	doc := Parse(types.DocMultipleTerms, raw)
	require.Len(t, doc.Terms, 2)
	assert.Equal(t, "high blood pressure over time", doc.Terms[0].Definition)
}

// --- methodology ---

func TestParseMethodologyAllSections(t *testing.T) {
	raw := `Study Design: Randomized controlled trial.
Key Methodological Elements: Double blinding and allocation concealment.
Strengths: Large sample size.
Limitations: Short follow-up period.`

	doc := Parse(types.DocMethodology, raw)
	require.NotNil(t, doc.Report)
	assert.Equal(t, "Randomized controlled trial.", doc.Report.Design)
	assert.Equal(t, "Double blinding and allocation concealment.", doc.Report.Methods)
	assert.Equal(t, "Large sample size.", doc.Report.Strengths)
	assert.Equal(t, "Short follow-up period.", doc.Report.Limitations)
}

func TestParseMethodologyHeadingOnOwnLine(t *testing.T) {
	raw := "1. Study Design\nA prospective cohort study.\n\n2. Methods\nSurvey instruments were used."
	doc := Parse(types.DocMethodology, raw)
	require.NotNil(t, doc.Report)
	assert.Contains(t, doc.Report.Design, "prospective cohort")
	assert.Contains(t, doc.Report.Methods, "Survey instruments")
}

func TestParseMethodologyMissingSectionsGetPlaceholders(t *testing.T) {
	raw := "Study Design: Case series."
	doc := Parse(types.DocMethodology, raw)
	require.NotNil(t, doc.Report)
	assert.Equal(t, "Case series.", doc.Report.Design)
	assert.Equal(t, placeholderMethods, doc.Report.Methods)
	assert.Equal(t, placeholderStrengths, doc.Report.Strengths)
	assert.Equal(t, placeholderLimitations, doc.Report.Limitations)
}

func TestParseMethodologyNoSectionsDegradesToOpaque(t *testing.T) {
	raw := "The authors conducted interviews over two years and reported themes."
	doc := Parse(types.DocMethodology, raw)
	assert.Nil(t, doc.Report)
	assert.Equal(t, raw, doc.Content)
}

func TestParseMethodologySynonymHeadings(t *testing.T) {
	raw := "Approach: mixed methods.\nWeaknesses: small cohort.\nAdvantages: rich data."
	doc := Parse(types.DocMethodology, raw)
	require.NotNil(t, doc.Report)
	assert.Equal(t, "mixed methods.", doc.Report.Methods)
	assert.Equal(t, "small cohort.", doc.Report.Limitations)
	assert.Equal(t, "rich data.", doc.Report.Strengths)
}

func TestMatchMethodologyHeadingWordBoundary(t *testing.T) {
	// "Designing" must not match the "design" keyword.
	sec, _ := matchMethodologyHeading("Designing better trials")
	assert.Equal(t, "", sec)

	sec, rest := matchMethodologyHeading("Design: crossover")
	assert.Equal(t, "design", sec)
	assert.Equal(t, "crossover", rest)
}

// --- research gaps ---

func TestParseResearchGapsNumbered(t *testing.T) {
	doc := Parse(types.DocResearchGaps, "1. Gap A\n2. Gap B")
	assert.Equal(t, []string{"Gap A", "Gap B"}, doc.Gaps)
}

func TestParseResearchGapsBulleted(t *testing.T) {
	doc := Parse(types.DocResearchGaps, "- Gap A\n- Gap B\n- Gap C")
	assert.Equal(t, []string{"Gap A", "Gap B", "Gap C"}, doc.Gaps)
}

func TestParseResearchGapsParagraphFallback(t *testing.T) {
	doc := Parse(types.DocResearchGaps, "para one\n\npara two")
	assert.Equal(t, []string{"para one", "para two"}, doc.Gaps)
}

func TestParseResearchGapsContinuationLines(t *testing.T) {
	doc := Parse(types.DocResearchGaps, "1. Gap A that\ncontinues here\n2. Gap B")
	assert.Equal(t, []string{"Gap A that continues here", "Gap B"}, doc.Gaps)
}

// --- general and render ---

func TestParseGeneral(t *testing.T) {
	doc := Parse(types.DocGeneral, "hello")
	assert.Equal(t, types.DocGeneral, doc.Kind)
	assert.Equal(t, "hello", doc.Content)
}

func TestRenderMethodologySections(t *testing.T) {
	doc := types.TaggedDocument{
		Kind: types.DocMethodology,
		Report: &types.MethodologyReport{
			Design: "RCT", Methods: "Blinding", Strengths: "Size", Limitations: "Time",
		},
	}
	sections := Render(doc)
	require.Len(t, sections, 4)
	assert.Equal(t, "Study Design", sections[0].Heading)
	assert.Equal(t, "Limitations", sections[3].Heading)
}

func TestRenderTermHeadingIncludesTerm(t *testing.T) {
	doc := Parse(types.DocTermExplanation, "Edema: swelling")
	sections := Render(doc)
	require.Len(t, sections, 1)
	assert.Equal(t, "Medical Term: Edema", sections[0].Heading)
	assert.Equal(t, "swelling", sections[0].Body)
}

func TestPlainTextGaps(t *testing.T) {
	doc := Parse(types.DocResearchGaps, "1. Gap A\n2. Gap B")
	text := PlainText(doc)
	assert.Contains(t, text, "Potential Research Gaps")
	assert.Contains(t, text, "- Gap A")
	assert.Contains(t, text, "- Gap B")
}
