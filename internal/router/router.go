// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package router classifies chat input and dispatches it to the UX
// sub-router, the advanced-command sub-router, a feature flow, or the
// general assistant. Classification is a first-match-wins pattern scan;
// the order of the branches is the tie-break policy.
package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-assistant/internal/pubmed"
	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/internal/tagdoc"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Searcher runs PubMed searches. Failures surface as warnings, never
// errors.
type Searcher interface {
	Initiate(ctx context.Context, query string, pageSize int, sort types.SortOrder) (*types.SearchSession, []string)
	FetchPage(ctx context.Context, sess *types.SearchSession, page int) ([]types.CitationRecord, []string)
}

// Analyst is the model-backed feature surface the router dispatches to.
type Analyst interface {
	ExplainTerms(ctx context.Context, rawTerms string, prefs types.UserPreferences) (types.TaggedDocument, error)
	AnalyzeMethodology(ctx context.Context, text string, prefs types.UserPreferences) (types.TaggedDocument, error)
	FindResearchGaps(ctx context.Context, query string, abstracts []string, prefs types.UserPreferences) (types.TaggedDocument, error)
	SuggestQuestions(ctx context.Context, query string, abstracts []string, prefs types.UserPreferences) (types.TaggedDocument, error)
	CompareStudies(ctx context.Context, first, second types.CitationRecord, prefs types.UserPreferences) (types.TaggedDocument, error)
	LiteratureReview(ctx context.Context, topic string, records []types.CitationRecord, prefs types.UserPreferences) (types.TaggedDocument, error)
	Chat(ctx context.Context, history []types.Turn) (string, error)
}

// PrefsSaver persists preference changes made through chat commands.
type PrefsSaver interface {
	Save(username string, prefs types.UserPreferences) error
}

// Router wires the chat input to the feature flows.
type Router struct {
	Search    Searcher
	AI        Analyst
	Prefs     PrefsSaver
	PageSize  int
	ExportDir string
}

var (
	explainTermsRe = regexp.MustCompile(`(?i)explain terms?\s*["']?([^"']+)["']?`)
	researchGapRe  = regexp.MustCompile(`(?i)research gaps|gaps in research|unexplored areas`)
	methodologyRe  = regexp.MustCompile(`(?i)methodology|study design|research design|methods`)
	abstractRefRe  = regexp.MustCompile(`(?i)abstract (?:number |#)?(\d+)`)
	searchMarkerRe = regexp.MustCompile(`\[SEARCH:\s*(.*?)\]`)
)

// Route processes one chat message. It first drains the pending-action
// queue, then appends the user turn, classifies the text, and appends
// exactly one assistant turn (the search-trigger branch appends one
// extra confirmation turn). Upstream failures become turn text, never
// errors.
func (r *Router) Route(ctx context.Context, sess *session.Context, text string) types.Turn {
	r.RunPending(ctx, sess)

	text = strings.TrimSpace(text)
	sess.Append(types.Turn{Role: types.RoleUser, Content: text, Kind: types.TurnPlain})

	var reply types.Turn
	switch {
	case r.uxCommand(text):
		reply = r.routeUX(sess, text)
	case r.advancedCommand(text):
		reply = r.routeAdvanced(ctx, sess, text)
	case explainTermsRe.MatchString(text):
		m := explainTermsRe.FindStringSubmatch(text)
		reply = r.explainTerms(ctx, sess, strings.TrimSpace(m[1]))
	case researchGapRe.MatchString(text):
		reply = r.researchGaps(ctx, sess)
	case methodologyRe.MatchString(text):
		reply = r.methodology(ctx, sess, text)
	default:
		return r.chat(ctx, sess, text)
	}

	sess.Append(reply)
	return reply
}

// RunPending executes actions queued from non-chat views. Each action
// appends one synthesized user turn and one assistant turn. Route calls
// this first; the chat page also calls it on load so queued actions run
// without waiting for the next message.
func (r *Router) RunPending(ctx context.Context, sess *session.Context) {
	for _, action := range sess.TakePending() {
		var userText string
		var reply types.Turn

		switch action.Kind {
		case types.PendingExplainTerms:
			joined := strings.Join(action.Terms, ", ")
			userText = "Explain these terms: " + joined
			reply = r.explainTerms(ctx, sess, joined)
		case types.PendingMethodology:
			if action.Article > 0 {
				userText = fmt.Sprintf("Analyze the methodology of abstract #%d", action.Article)
			} else {
				userText = "Analyze the methodology of my search results"
			}
			reply = r.methodologyFor(ctx, sess, action.Article)
		case types.PendingGapAnalysis:
			userText = "Find research gaps in my search results"
			reply = r.researchGaps(ctx, sess)
		case types.PendingResearchQuestions:
			query := activeQuery(sess)
			userText = "Suggest related research questions based on my search for: " + query
			reply = r.suggestQuestions(ctx, sess)
		default:
			continue
		}

		sess.Append(types.Turn{Role: types.RoleUser, Content: userText, Kind: types.TurnPlain})
		sess.Append(reply)
	}
}

func (r *Router) explainTerms(ctx context.Context, sess *session.Context, terms string) types.Turn {
	doc, err := r.AI.ExplainTerms(ctx, terms, sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("I couldn't generate an explanation for '%s': %v", terms, err))
	}
	return taggedTurn(doc)
}

func (r *Router) researchGaps(ctx context.Context, sess *session.Context) types.Turn {
	_, page := sess.Search()
	if len(page) == 0 {
		return plainTurn("Please perform a search first to identify research gaps.")
	}
	abstracts := collectAbstracts(page, 5)
	if len(abstracts) == 0 {
		return plainTurn("Could not find enough abstracts to analyze. Try a different search.")
	}
	doc, err := r.AI.FindResearchGaps(ctx, activeQuery(sess), abstracts, sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("Error analyzing research gaps: %v", err))
	}
	return taggedTurn(doc)
}

func (r *Router) suggestQuestions(ctx context.Context, sess *session.Context) types.Turn {
	_, page := sess.Search()
	if len(page) == 0 {
		return plainTurn("Please perform a search first to get research question suggestions.")
	}
	abstracts := collectAbstracts(page, 5)
	doc, err := r.AI.SuggestQuestions(ctx, activeQuery(sess), abstracts, sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("Error generating research questions: %v", err))
	}
	return taggedTurn(doc)
}

// methodology handles the chat pattern, resolving an optional
// "abstract #N" reference before analyzing.
func (r *Router) methodology(ctx context.Context, sess *session.Context, text string) types.Turn {
	article := 0
	if m := abstractRefRe.FindStringSubmatch(text); m != nil {
		article, _ = strconv.Atoi(m[1])
	}
	return r.methodologyFor(ctx, sess, article)
}

// methodologyFor analyzes the abstract of the 1-based article number, or
// the aggregate of the first fetched abstracts when article is 0 or out
// of range.
func (r *Router) methodologyFor(ctx context.Context, sess *session.Context, article int) types.Turn {
	_, page := sess.Search()

	var text string
	if article >= 1 && article <= len(page) {
		text = page[article-1].Abstract
	} else {
		if len(page) == 0 {
			return plainTurn("Please perform a search first or provide a specific abstract to analyze methodologies.")
		}
		abstracts := collectAbstracts(page, 3)
		if len(abstracts) == 0 {
			return plainTurn("Could not find enough abstracts to analyze. Try a different search.")
		}
		text = strings.Join(abstracts, " ")
	}

	doc, err := r.AI.AnalyzeMethodology(ctx, text, sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("Error analyzing methodology: %v", err))
	}
	return taggedTurn(doc)
}

// chat forwards to the general assistant and handles an embedded
// [SEARCH: query] marker: run the search, strip the marker from the
// displayed reply, and append a confirmation or not-found turn.
func (r *Router) chat(ctx context.Context, sess *session.Context, text string) types.Turn {
	reply, err := r.AI.Chat(ctx, sess.Turns())
	if err != nil {
		turn := errorTurn(fmt.Sprintf("Error reaching the assistant: %v", err))
		sess.Append(turn)
		return turn
	}

	var query string
	if m := searchMarkerRe.FindStringSubmatch(reply); m != nil {
		query = strings.TrimSpace(m[1])
		reply = strings.TrimSpace(searchMarkerRe.ReplaceAllString(reply, ""))
	}

	turn := plainTurn(reply)
	sess.Append(turn)

	if query == "" {
		return turn
	}

	confirmation := r.runSearch(ctx, sess, query)
	sess.Append(confirmation)
	return confirmation
}

// runSearch executes a marker-triggered search and builds the
// confirmation turn.
func (r *Router) runSearch(ctx context.Context, sess *session.Context, query string) types.Turn {
	searchSess, warnings := r.Search.Initiate(ctx, query, r.PageSize, types.SortRelevance)
	if searchSess.TotalCount == 0 {
		msg := fmt.Sprintf("No results found for '%s'. Try a different search term or check your syntax.", query)
		if len(warnings) > 0 {
			msg = fmt.Sprintf("Error searching PubMed: %s", strings.Join(warnings, "; "))
		}
		return plainTurn(msg)
	}

	page, warnings := r.Search.FetchPage(ctx, searchSess, 0)
	if len(warnings) > 0 {
		return plainTurn(fmt.Sprintf("Error searching PubMed: %s", strings.Join(warnings, "; ")))
	}
	sess.SetSearch(searchSess, page)

	return plainTurn(fmt.Sprintf(
		"Found %d results for '%s'. You can view them on the Search page or ask me to analyze them.",
		searchSess.TotalCount, query))
}

// --- advanced sub-router ---

func (r *Router) advancedCommand(text string) bool {
	lower := strings.ToLower(text)
	for _, cmd := range []string{"/compare", "/review", "/export"} {
		if strings.HasPrefix(lower, cmd) {
			return true
		}
	}
	return false
}

func (r *Router) routeAdvanced(ctx context.Context, sess *session.Context, text string) types.Turn {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "/compare"):
		return r.compare(ctx, sess, text)
	case strings.HasPrefix(lower, "/review"):
		return r.review(ctx, sess)
	case strings.HasPrefix(lower, "/export"):
		return r.export(sess)
	}
	return plainTurn("Unknown command. Type /help to see what I can do.")
}

func (r *Router) compare(ctx context.Context, sess *session.Context, text string) types.Turn {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return plainTurn("Usage: /compare [article #1] [article #2], e.g. /compare 1 4")
	}
	first, err1 := strconv.Atoi(fields[1])
	second, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return plainTurn("Usage: /compare [article #1] [article #2], e.g. /compare 1 4")
	}

	_, page := sess.Search()
	if len(page) == 0 {
		return plainTurn("Please perform a search first, then pick two articles to compare.")
	}
	if first < 1 || first > len(page) || second < 1 || second > len(page) {
		return plainTurn(fmt.Sprintf("Article numbers must be between 1 and %d.", len(page)))
	}

	doc, err := r.AI.CompareStudies(ctx, page[first-1], page[second-1], sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("Error comparing studies: %v", err))
	}
	return taggedTurn(doc)
}

func (r *Router) review(ctx context.Context, sess *session.Context) types.Turn {
	_, page := sess.Search()
	if len(page) == 0 {
		return plainTurn("Please perform a search first, then ask for a literature review.")
	}
	doc, err := r.AI.LiteratureReview(ctx, activeQuery(sess), page, sess.Prefs())
	if err != nil {
		return errorTurn(fmt.Sprintf("Error writing literature review: %v", err))
	}
	return taggedTurn(doc)
}

// export writes the currently fetched page to a CSV file in ExportDir.
func (r *Router) export(sess *session.Context) types.Turn {
	searchSess, page := sess.Search()
	if len(page) == 0 {
		return plainTurn("Please perform a search first, then use /export to save the results.")
	}

	dir := r.ExportDir
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errorTurn(fmt.Sprintf("Error exporting results: %v", err))
	}

	path := filepath.Join(dir, pubmed.ExportFilename(searchSess.Query, searchSess.CurrentPage+1))
	f, err := os.Create(path)
	if err != nil {
		return errorTurn(fmt.Sprintf("Error exporting results: %v", err))
	}
	defer f.Close()

	if err := pubmed.WriteCSV(f, page); err != nil {
		return errorTurn(fmt.Sprintf("Error exporting results: %v", err))
	}
	return plainTurn(fmt.Sprintf("Exported %d results to %s.", len(page), path))
}

// --- helpers ---

func activeQuery(sess *session.Context) string {
	if searchSess, _ := sess.Search(); searchSess != nil {
		return searchSess.Query
	}
	return "the current topic"
}

func collectAbstracts(page []types.CitationRecord, limit int) []string {
	var out []string
	for _, rec := range page {
		if rec.HasAbstract() {
			out = append(out, rec.Abstract)
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

func plainTurn(content string) types.Turn {
	return types.Turn{Role: types.RoleAssistant, Content: content, Kind: types.TurnPlain}
}

// errorTurn carries upstream failure text as a normal assistant turn.
func errorTurn(content string) types.Turn {
	return plainTurn(content)
}

func taggedTurn(doc types.TaggedDocument) types.Turn {
	return types.Turn{
		Role:    types.RoleAssistant,
		Content: tagdoc.PlainText(doc),
		Kind:    types.TurnTagged,
		Doc:     &doc,
	}
}
