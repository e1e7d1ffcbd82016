// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// csvHeader lists the exported columns, matching CitationRecord fields.
var csvHeader = []string{"pmid", "title", "abstract", "authors", "journal", "pub_date", "year", "doi", "pubmed_url"}

// WriteCSV writes the records as CSV to w, one row per citation. Authors
// are comma-joined into a single cell.
func WriteCSV(w io.Writer, records []types.CitationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.PMID,
			rec.Title,
			rec.Abstract,
			strings.Join(rec.Authors, ", "),
			rec.Journal,
			rec.PubDate,
			rec.Year,
			rec.DOI,
			rec.URL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename derives the download filename from the active query
// (spaces replaced by underscores) and the 1-based page number.
func ExportFilename(query string, page int) string {
	name := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	if name == "" {
		name = "results"
	}
	return fmt.Sprintf("pubmed_%s_page_%d.csv", name, page)
}
