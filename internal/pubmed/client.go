// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed queries the NCBI E-utilities and parses citation records.
//
// Searching is a two-step protocol: ESearch runs the query with
// usehistory=y and returns a result count plus a continuation handle
// (WebEnv/QueryKey); EFetch then pages through the server-side result set
// using that handle. Reusing the handle keeps every page consistent with
// the initial search, since PubMed's ordering is not guaranteed stable
// across repeated identical queries.
package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-assistant/internal/httputil"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// eutilsBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const defaultPageSize = 50

// Client issues searches against the PubMed E-utilities. Failures at this
// boundary degrade to empty results plus warnings; they are never
// propagated as hard errors that stop the interaction.
type Client struct {
	Client *http.Client
	Cfg    types.PubMedConfig
}

// Initiate runs the initial search and returns a SearchSession carrying
// the total count and continuation handle. An upstream response without a
// handle yields an empty session with count 0, which is not an error.
// Transport and parse failures also yield an empty session, with the cause
// in the returned warnings.
func (c *Client) Initiate(ctx context.Context, query string, pageSize int, sort types.SortOrder) (*types.SearchSession, []string) {
	if pageSize <= 0 {
		pageSize = c.Cfg.PageSize
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	empty := &types.SearchSession{Query: query, PageSize: pageSize, Sort: sort}

	params := url.Values{
		"db":         {"pubmed"},
		"term":       {query},
		"retmax":     {strconv.Itoa(pageSize)},
		"retstart":   {"0"},
		"sort":       {string(sort)},
		"retmode":    {"xml"},
		"usehistory": {"y"},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, eutilsBase+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return empty, []string{fmt.Sprintf("search request failed: %v", err)}
	}

	var sr esearchResult
	if err := xml.Unmarshal(body, &sr); err != nil {
		return empty, []string{fmt.Sprintf("parsing search response: %v", err)}
	}

	if sr.WebEnv == "" || sr.QueryKey == "" {
		return empty, nil
	}

	return &types.SearchSession{
		Query:      query,
		WebEnv:     sr.WebEnv,
		QueryKey:   sr.QueryKey,
		TotalCount: sr.Count,
		PageSize:   pageSize,
		Sort:       sort,
	}, nil
}

// FetchPage retrieves one page of records using the session's continuation
// handle. Pages past the end of the result set return an empty list
// without error; bounds are the caller's concern. A session without a
// handle always yields an empty page.
func (c *Client) FetchPage(ctx context.Context, sess *types.SearchSession, page int) ([]types.CitationRecord, []string) {
	if !sess.HasHandle() {
		return nil, nil
	}

	params := url.Values{
		"db":        {"pubmed"},
		"retmode":   {"xml"},
		"rettype":   {"abstract"},
		"WebEnv":    {sess.WebEnv},
		"query_key": {sess.QueryKey},
		"retmax":    {strconv.Itoa(sess.PageSize)},
		"retstart":  {strconv.Itoa(page * sess.PageSize)},
	}
	c.addIdentity(params)

	body, err := c.get(ctx, eutilsBase+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, []string{fmt.Sprintf("fetch request failed: %v", err)}
	}

	records, warnings, err := parseRecords(body)
	if err != nil {
		return nil, []string{fmt.Sprintf("parsing fetch response: %v", err)}
	}
	return records, warnings
}

// addIdentity appends the tool/email identification parameters required by
// the NCBI usage policy, and the API key when configured.
func (c *Client) addIdentity(params url.Values) {
	if c.Cfg.Tool != "" {
		params.Set("tool", c.Cfg.Tool)
	}
	if c.Cfg.Email != "" {
		params.Set("email", c.Cfg.Email)
	}
	if c.Cfg.APIKey != "" {
		params.Set("api_key", c.Cfg.APIKey)
	}
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Cfg.UserAgent)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("E-utilities returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// parseRecords converts an EFetch XML document to citation records.
// Missing fields fall back to sentinel values, and a record without a
// PMID is skipped with a warning rather than failing the whole page.
func parseRecords(body []byte) ([]types.CitationRecord, []string, error) {
	var set articleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, nil, err
	}

	var records []types.CitationRecord
	var warnings []string
	for i, art := range set.Articles {
		pmid := strings.TrimSpace(art.Medline.PMID)
		if pmid == "" {
			warnings = append(warnings, fmt.Sprintf("skipping article %d: missing PMID", i+1))
			continue
		}

		meta := art.Medline.Article
		rec := types.CitationRecord{
			PMID:     pmid,
			Title:    fallback(strings.TrimSpace(meta.Title), types.NoTitle),
			Abstract: joinAbstract(meta.Abstract.Parts),
			Authors:  parseAuthors(meta.Authors),
			Journal:  fallback(strings.TrimSpace(meta.Journal.Title), types.UnknownJournal),
			DOI:      art.doi(),
			URL:      fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
		}
		rec.Year = parseYear(meta.Journal.PubDate)
		rec.PubDate = strings.TrimSpace(strings.TrimSpace(meta.Journal.PubDate.Month) + " " + rec.Year)

		records = append(records, rec)
	}
	return records, warnings, nil
}

func fallback(s, sentinel string) string {
	if s == "" {
		return sentinel
	}
	return s
}

// joinAbstract concatenates the AbstractText parts (structured abstracts
// carry one element per labeled section).
func joinAbstract(parts []string) string {
	var kept []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return types.NoAbstract
	}
	return strings.Join(kept, " ")
}

// parseAuthors builds "ForeName LastName" strings, keeping collective
// names as-is. An empty author list yields the Unknown sentinel.
func parseAuthors(authors []pubmedAuthor) []string {
	var out []string
	for _, a := range authors {
		switch {
		case a.LastName != "":
			name := strings.TrimSpace(strings.TrimSpace(a.ForeName) + " " + strings.TrimSpace(a.LastName))
			out = append(out, name)
		case a.CollectiveName != "":
			out = append(out, strings.TrimSpace(a.CollectiveName))
		}
	}
	if len(out) == 0 {
		return []string{types.UnknownAuthor}
	}
	return out
}

// parseYear prefers the structured Year element and falls back to the
// first four characters of MedlineDate (e.g. "2019 Nov-Dec").
func parseYear(d pubmedDate) string {
	if y := strings.TrimSpace(d.Year); y != "" {
		return y
	}
	if md := strings.TrimSpace(d.MedlineDate); len(md) >= 4 {
		return md[:4]
	}
	return types.UnknownYear
}

// E-utilities XML structures.

type esearchResult struct {
	Count    int    `xml:"Count"`
	QueryKey string `xml:"QueryKey"`
	WebEnv   string `xml:"WebEnv"`
}

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Medline medlineCitation `xml:"MedlineCitation"`
	Data    pubmedData      `xml:"PubmedData"`
}

func (a pubmedArticle) doi() string {
	for _, id := range a.Data.IDs {
		if id.Type == "doi" {
			return strings.TrimSpace(id.Value)
		}
	}
	return ""
}

type medlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article pubmedMeta    `xml:"Article"`
}

type pubmedMeta struct {
	Title    string          `xml:"ArticleTitle"`
	Abstract pubmedAbstract  `xml:"Abstract"`
	Authors  []pubmedAuthor  `xml:"AuthorList>Author"`
	Journal  pubmedJournal   `xml:"Journal"`
}

type pubmedAbstract struct {
	Parts []string `xml:"AbstractText"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedJournal struct {
	Title   string     `xml:"Title"`
	PubDate pubmedDate `xml:"JournalIssue>PubDate"`
}

type pubmedDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	MedlineDate string `xml:"MedlineDate"`
}

type pubmedData struct {
	IDs []articleID `xml:"ArticleIdList>ArticleId"`
}

type articleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}
