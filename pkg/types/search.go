// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model and configuration structs shared
// across components.
package types

// SortOrder selects the result ordering requested from the citation API.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortDate      SortOrder = "date"
	SortAuthor    SortOrder = "author"
)

// SearchSession tracks one executed query against the citation API. The
// continuation handle (WebEnv/QueryKey) pins all page fetches to the result
// set produced by the initial search, so paging stays consistent even when
// the upstream ordering is not stable across repeated queries. TotalCount
// is fixed for the lifetime of the handle.
type SearchSession struct {
	Query       string
	WebEnv      string
	QueryKey    string
	TotalCount  int
	PageSize    int
	CurrentPage int
	Sort        SortOrder
}

// HasHandle reports whether the session carries a usable continuation handle.
func (s *SearchSession) HasHandle() bool {
	return s != nil && s.WebEnv != "" && s.QueryKey != ""
}

// TotalPages returns ceil(TotalCount / PageSize), or 0 when the session is
// empty.
func (s *SearchSession) TotalPages() int {
	if s == nil || s.PageSize <= 0 || s.TotalCount <= 0 {
		return 0
	}
	return (s.TotalCount + s.PageSize - 1) / s.PageSize
}

// Sentinel values substituted for fields missing from a citation record.
const (
	NoTitle        = "No title available"
	NoAbstract     = "No abstract available"
	UnknownAuthor  = "Unknown"
	UnknownJournal = "Unknown Journal"
	UnknownYear    = "Unknown Year"
)

// CitationRecord is one parsed article. Immutable once parsed; fields that
// could not be extracted hold the sentinel values above rather than being
// empty.
type CitationRecord struct {
	PMID     string
	Title    string
	Abstract string
	Authors  []string
	Journal  string
	PubDate  string
	Year     string
	DOI      string
	URL      string
}

// HasAbstract reports whether the record carries real abstract text.
func (r CitationRecord) HasAbstract() bool {
	return r.Abstract != "" && r.Abstract != NoAbstract
}
