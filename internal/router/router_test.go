// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package router

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// fakeAnalyst returns canned documents and records which method ran.
type fakeAnalyst struct {
	called    []string
	chatReply string
	err       error
}

func (f *fakeAnalyst) note(name string) { f.called = append(f.called, name) }

func (f *fakeAnalyst) ExplainTerms(_ context.Context, raw string, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note("explain:" + raw)
	return types.TaggedDocument{Kind: types.DocTermExplanation, Terms: []types.TermEntry{{Term: raw, Definition: "def"}}}, f.err
}

func (f *fakeAnalyst) AnalyzeMethodology(_ context.Context, text string, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note("methodology:" + text)
	return types.TaggedDocument{Kind: types.DocMethodology, Report: &types.MethodologyReport{Design: "RCT"}}, f.err
}

func (f *fakeAnalyst) FindResearchGaps(_ context.Context, query string, abstracts []string, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note(fmt.Sprintf("gaps:%s:%d", query, len(abstracts)))
	return types.TaggedDocument{Kind: types.DocResearchGaps, Gaps: []string{"gap"}}, f.err
}

func (f *fakeAnalyst) SuggestQuestions(_ context.Context, query string, _ []string, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note("questions:" + query)
	return types.TaggedDocument{Kind: types.DocGeneral, Content: "questions"}, f.err
}

func (f *fakeAnalyst) CompareStudies(_ context.Context, a, b types.CitationRecord, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note("compare:" + a.PMID + ":" + b.PMID)
	return types.TaggedDocument{Kind: types.DocStudyComparison, Content: "comparison"}, f.err
}

func (f *fakeAnalyst) LiteratureReview(_ context.Context, topic string, _ []types.CitationRecord, _ types.UserPreferences) (types.TaggedDocument, error) {
	f.note("review:" + topic)
	return types.TaggedDocument{Kind: types.DocLiteratureReview, Content: "review"}, f.err
}

func (f *fakeAnalyst) Chat(_ context.Context, history []types.Turn) (string, error) {
	f.note(fmt.Sprintf("chat:%d", len(history)))
	return f.chatReply, f.err
}

// fakeSearcher serves a fixed result set.
type fakeSearcher struct {
	total int
	page  []types.CitationRecord
}

func (f *fakeSearcher) Initiate(_ context.Context, query string, pageSize int, sort types.SortOrder) (*types.SearchSession, []string) {
	if f.total == 0 {
		return &types.SearchSession{Query: query}, nil
	}
	return &types.SearchSession{
		Query: query, WebEnv: "env", QueryKey: "1",
		TotalCount: f.total, PageSize: pageSize, Sort: sort,
	}, nil
}

func (f *fakeSearcher) FetchPage(_ context.Context, _ *types.SearchSession, _ int) ([]types.CitationRecord, []string) {
	return f.page, nil
}

type fakePrefsSaver struct {
	saved map[string]types.UserPreferences
}

func (f *fakePrefsSaver) Save(username string, prefs types.UserPreferences) error {
	if f.saved == nil {
		f.saved = map[string]types.UserPreferences{}
	}
	f.saved[username] = prefs
	return nil
}

func testRecords(n int) []types.CitationRecord {
	recs := make([]types.CitationRecord, n)
	for i := range recs {
		recs[i] = types.CitationRecord{
			PMID:     fmt.Sprintf("%d", i+1),
			Title:    fmt.Sprintf("Study %d", i+1),
			Abstract: fmt.Sprintf("Abstract %d", i+1),
		}
	}
	return recs
}

func newTestRouter(ai *fakeAnalyst, search *fakeSearcher) *Router {
	return &Router{Search: search, AI: ai, PageSize: 10}
}

func loggedInSession(t *testing.T) *session.Context {
	t.Helper()
	c := session.NewRegistry().Create()
	c.Login("alice", types.DefaultPreferences())
	return c
}

func TestSlashCommandPrecedence(t *testing.T) {
	// "/help methodology" contains a methodology keyword but must hit the
	// UX sub-router, never the model.
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "/help methodology")
	assert.Empty(t, ai.called)
	assert.Contains(t, reply.Content, "/methodology")
}

func TestEveryBranchAppendsOneUserOneAssistantTurn(t *testing.T) {
	inputs := []string{
		"/help",
		"/preferences",
		"explain term hypertension",
		"find research gaps",
		"what is the methodology here",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			ai := &fakeAnalyst{chatReply: "plain reply"}
			sess := loggedInSession(t)
			sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 3, PageSize: 10}, testRecords(3))

			r := newTestRouter(ai, &fakeSearcher{})
			r.Route(context.Background(), sess, input)

			turns := sess.Turns()
			require.Len(t, turns, 2)
			assert.Equal(t, types.RoleUser, turns[0].Role)
			assert.Equal(t, types.RoleAssistant, turns[1].Role)
		})
	}
}

func TestExplainTermsFlow(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, `explain term "hypertension"`)
	require.Len(t, ai.called, 1)
	assert.Equal(t, "explain:hypertension", ai.called[0])
	assert.Equal(t, types.TurnTagged, reply.Kind)
	require.NotNil(t, reply.Doc)
	assert.Equal(t, types.DocTermExplanation, reply.Doc.Kind)
}

func TestResearchGapsNeedPriorSearch(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "find research gaps")
	assert.Empty(t, ai.called)
	assert.Contains(t, reply.Content, "perform a search first")
	assert.Equal(t, types.TurnPlain, reply.Kind)
}

func TestResearchGapsSkipSentinelAbstracts(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	recs := testRecords(3)
	recs[1].Abstract = types.NoAbstract
	sess.SetSearch(&types.SearchSession{Query: "diabetes", WebEnv: "e", QueryKey: "1", TotalCount: 3}, recs)

	r := newTestRouter(ai, &fakeSearcher{})
	r.Route(context.Background(), sess, "what are the gaps in research?")
	require.Len(t, ai.called, 1)
	assert.Equal(t, "gaps:diabetes:2", ai.called[0])
}

func TestMethodologyAbstractReference(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 3}, testRecords(3))

	r := newTestRouter(ai, &fakeSearcher{})
	r.Route(context.Background(), sess, "explain the methodology of abstract #2")
	require.Len(t, ai.called, 1)
	assert.Equal(t, "methodology:Abstract 2", ai.called[0])
}

func TestMethodologyOutOfRangeFallsBackToAggregate(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 2}, testRecords(2))

	r := newTestRouter(ai, &fakeSearcher{})
	r.Route(context.Background(), sess, "methodology of abstract number 9")
	require.Len(t, ai.called, 1)
	assert.Equal(t, "methodology:Abstract 1 Abstract 2", ai.called[0])
}

func TestMethodologyWithoutSearchGivesGuidance(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "tell me about the study design")
	assert.Empty(t, ai.called)
	assert.Contains(t, reply.Content, "perform a search first")
}

func TestChatSearchMarkerRunsSearchAndStripsMarker(t *testing.T) {
	ai := &fakeAnalyst{chatReply: "Searching now. [SEARCH: diabetes treatment] Here is why."}
	search := &fakeSearcher{total: 42, page: testRecords(3)}
	sess := loggedInSession(t)
	r := newTestRouter(ai, search)

	reply := r.Route(context.Background(), sess, "find me papers on diabetes")

	turns := sess.Turns()
	require.Len(t, turns, 3)
	assert.NotContains(t, turns[1].Content, "[SEARCH:")
	assert.Contains(t, turns[1].Content, "Here is why.")
	assert.Contains(t, reply.Content, "Found 42 results for 'diabetes treatment'")

	searchSess, page := sess.Search()
	require.NotNil(t, searchSess)
	assert.Equal(t, "diabetes treatment", searchSess.Query)
	assert.Len(t, page, 3)
}

func TestChatSearchMarkerNoResults(t *testing.T) {
	ai := &fakeAnalyst{chatReply: "[SEARCH: zorblax]"}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{total: 0})

	reply := r.Route(context.Background(), sess, "search zorblax")
	assert.Contains(t, reply.Content, "No results found for 'zorblax'")
	require.Len(t, sess.Turns(), 3)
}

func TestChatPlainReplyAppendsTwoTurns(t *testing.T) {
	ai := &fakeAnalyst{chatReply: "MeSH terms are controlled vocabulary."}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "what are MeSH terms?")
	assert.Equal(t, "MeSH terms are controlled vocabulary.", reply.Content)
	assert.Len(t, sess.Turns(), 2)
}

func TestChatErrorBecomesTurn(t *testing.T) {
	ai := &fakeAnalyst{err: fmt.Errorf("key missing")}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "hello there")
	assert.Contains(t, reply.Content, "key missing")
	require.Len(t, sess.Turns(), 2)
	assert.Equal(t, types.RoleAssistant, sess.Turns()[1].Role)
}

func TestPendingActionsConsumedOnce(t *testing.T) {
	ai := &fakeAnalyst{chatReply: "ok"}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 2}, testRecords(2))
	sess.Enqueue(types.PendingAction{Kind: types.PendingExplainTerms, Terms: []string{"edema", "dyspnea"}})

	r := newTestRouter(ai, &fakeSearcher{})
	r.Route(context.Background(), sess, "/help")

	// Pending pair plus the routed pair.
	turns := sess.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, "Explain these terms: edema, dyspnea", turns[0].Content)
	assert.Equal(t, []string{"explain:edema, dyspnea"}, ai.called)

	// Second invocation must not replay the action.
	r.Route(context.Background(), sess, "/help")
	assert.Len(t, sess.Turns(), 6)
	assert.Len(t, ai.called, 1)
}

func TestPendingMethodologyActionResolvesArticle(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 2}, testRecords(2))
	sess.Enqueue(types.PendingAction{Kind: types.PendingMethodology, Article: 2})

	r := newTestRouter(ai, &fakeSearcher{})
	r.Route(context.Background(), sess, "/help")
	require.NotEmpty(t, ai.called)
	assert.Equal(t, "methodology:Abstract 2", ai.called[0])
}

func TestCompareCommand(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 4}, testRecords(4))

	r := newTestRouter(ai, &fakeSearcher{})
	reply := r.Route(context.Background(), sess, "/compare 1 4")
	require.Len(t, ai.called, 1)
	assert.Equal(t, "compare:1:4", ai.called[0])
	assert.Equal(t, types.TurnTagged, reply.Kind)
}

func TestCompareCommandValidation(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "q", WebEnv: "e", QueryKey: "1", TotalCount: 2}, testRecords(2))
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "/compare")
	assert.Contains(t, reply.Content, "Usage: /compare")

	reply = r.Route(context.Background(), sess, "/compare 1 9")
	assert.Contains(t, reply.Content, "between 1 and 2")
	assert.Empty(t, ai.called)
}

func TestExportCommandWritesCSV(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	sess.SetSearch(&types.SearchSession{Query: "gene therapy", WebEnv: "e", QueryKey: "1", TotalCount: 2}, testRecords(2))

	dir := t.TempDir()
	r := newTestRouter(ai, &fakeSearcher{})
	r.ExportDir = dir

	reply := r.Route(context.Background(), sess, "/export")
	assert.Contains(t, reply.Content, "Exported 2 results")

	path := filepath.Join(dir, "pubmed_gene_therapy_page_1.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "pmid,title,"))
}

func TestComplexityCommandPersists(t *testing.T) {
	ai := &fakeAnalyst{}
	saver := &fakePrefsSaver{}
	sess := loggedInSession(t)

	r := newTestRouter(ai, &fakeSearcher{})
	r.Prefs = saver

	reply := r.Route(context.Background(), sess, "/complexity advanced")
	assert.Contains(t, reply.Content, "set to Advanced")
	assert.Equal(t, types.ComplexityAdvanced, saver.saved["alice"].Complexity)
	assert.Equal(t, types.ComplexityAdvanced, sess.Prefs().Complexity)
}

func TestComplexityCommandRejectsUnknownLevel(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "/complexity extreme")
	assert.Contains(t, reply.Content, "Invalid complexity level")
}

func TestDetailCommandWithoutArgReportsCurrent(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "/detail")
	assert.Contains(t, reply.Content, "Current detail level: Standard")
}

func TestHelpTopicLookup(t *testing.T) {
	ai := &fakeAnalyst{}
	sess := loggedInSession(t)
	r := newTestRouter(ai, &fakeSearcher{})

	reply := r.Route(context.Background(), sess, "/help gaps")
	assert.Contains(t, reply.Content, "Find Research Gaps")
	assert.Contains(t, reply.Content, "/gaps")

	reply = r.Route(context.Background(), sess, "/help frobnicate")
	assert.Contains(t, reply.Content, "couldn't find help on 'frobnicate'")
}
