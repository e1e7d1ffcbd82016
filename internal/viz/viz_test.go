// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package viz

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

func TestYearlyTrendsSortedAndSkipsUnknown(t *testing.T) {
	records := []types.CitationRecord{
		{Year: "2021"},
		{Year: "2019"},
		{Year: "2021"},
		{Year: types.UnknownYear},
		{Year: ""},
	}

	trends := YearlyTrends(records)
	assert.Equal(t, []YearCount{
		{Year: "2019", Count: 1},
		{Year: "2021", Count: 2},
	}, trends)
}

func TestJournalCountsTopTenDescending(t *testing.T) {
	var records []types.CitationRecord
	// Twelve journals, journal-N appearing N times.
	for n := 1; n <= 12; n++ {
		for i := 0; i < n; i++ {
			records = append(records, types.CitationRecord{Journal: journalName(n)})
		}
	}

	counts := JournalCounts(records)
	require.Len(t, counts, 10)
	assert.Equal(t, JournalCount{Journal: journalName(12), Count: 12}, counts[0])
	assert.Equal(t, JournalCount{Journal: journalName(3), Count: 3}, counts[9])
}

func TestJournalCountsTiesBreakAlphabetically(t *testing.T) {
	records := []types.CitationRecord{
		{Journal: "Zeta"},
		{Journal: "Alpha"},
	}
	counts := JournalCounts(records)
	require.Len(t, counts, 2)
	assert.Equal(t, "Alpha", counts[0].Journal)
}

func TestRenderDashboard(t *testing.T) {
	records := []types.CitationRecord{
		{Year: "2020", Journal: "The Lancet"},
		{Year: "2021", Journal: "BMJ"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, records))
	html := buf.String()
	assert.Contains(t, html, "Publication Trends Over Years")
	assert.Contains(t, html, "Top 10 Journals")
}

func journalName(n int) string {
	return "Journal " + string(rune('A'+n-1))
}
