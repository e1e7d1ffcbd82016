// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

func TestWriteCSV(t *testing.T) {
	records := []types.CitationRecord{
		{
			PMID:     "12345",
			Title:    "A Study",
			Abstract: "Some abstract.",
			Authors:  []string{"Jane Smith", "John Doe"},
			Journal:  "J Test",
			PubDate:  "Mar 2021",
			Year:     "2021",
			DOI:      "10.1000/x",
			URL:      "https://pubmed.ncbi.nlm.nih.gov/12345/",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "12345", rows[1][0])
	assert.Equal(t, "Jane Smith, John Doe", rows[1][3])
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/12345/", rows[1][8])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		query string
		page  int
		want  string
	}{
		{"diabetes type 2", 1, "pubmed_diabetes_type_2_page_1.csv"},
		{"cancer", 3, "pubmed_cancer_page_3.csv"},
		{"", 1, "pubmed_results_page_1.csv"},
	}
	for _, tt := range tests {
		if got := ExportFilename(tt.query, tt.page); got != tt.want {
			t.Errorf("ExportFilename(%q, %d) = %q, want %q", tt.query, tt.page, got, tt.want)
		}
	}
}
