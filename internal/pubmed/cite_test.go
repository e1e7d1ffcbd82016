// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"testing"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

func citeRecord() types.CitationRecord {
	return types.CitationRecord{
		Title:   "Attention in Medicine",
		Authors: []string{"Jane Smith", "John Doe"},
		Journal: "J Test",
		PubDate: "Mar 2021",
		Year:    "2021",
	}
}

func TestFormatCitation(t *testing.T) {
	rec := citeRecord()
	tests := []struct {
		style types.CitationStyle
		want  string
	}{
		{types.StyleVancouver, "Jane Smith, John Doe. Attention in Medicine. J Test. Mar 2021."},
		{types.StyleAPA, "Jane Smith, John Doe (2021). Attention in Medicine. J Test."},
		{types.StyleMLA, `Smith, Jane, et al. "Attention in Medicine." J Test, 2021.`},
		{types.StyleChicago, `Jane Smith, John Doe. "Attention in Medicine." J Test (2021).`},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			if got := FormatCitation(rec, tt.style); got != tt.want {
				t.Errorf("FormatCitation(%s) = %q, want %q", tt.style, got, tt.want)
			}
		})
	}
}

func TestFormatCitationUnknownStyleFallsBackToVancouver(t *testing.T) {
	rec := citeRecord()
	if got, want := FormatCitation(rec, types.CitationStyle("Nature")), FormatCitation(rec, types.StyleVancouver); got != want {
		t.Errorf("unknown style = %q, want Vancouver rendering %q", got, want)
	}
}

func TestInvertName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Jane Smith", "Smith, Jane"},
		{"Jane van der Berg", "Berg, Jane van der"},
		{"Cher", "Cher"},
	}
	for _, tt := range tests {
		if got := invertName(tt.in); got != tt.want {
			t.Errorf("invertName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
