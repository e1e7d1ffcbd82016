// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/pubmed-assistant/internal/tagdoc"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Token budgets per call site. Detection is cheap; analysis replies get
// room to structure their sections.
const (
	detectBudget      = 100
	explainBudget     = 150
	multiTermBudget   = 800
	methodologyBudget = 800
	gapsBudget        = 800
	questionsBudget   = 800
	compareBudget     = 1000
	reviewBudget      = 1500
	chatBudget        = 500
)

// maxDetectedTerms caps how many terms a single detection call returns.
const maxDetectedTerms = 8

// historyWindow is how many trailing conversation turns accompany a
// general chat call.
const historyWindow = 10

// Assistant shapes feature-specific model calls. All prompts honor the
// user's complexity and detail preferences.
type Assistant struct {
	Backend Backend
}

const detectSystem = "You are a medical terminology detector. Extract specialized medical terms from the text provided. " +
	"Return only the most complex or technical medical terms that a general audience would find difficult to understand. " +
	"Return the response as a comma-separated list of terms only."

// DetectTerms asks the model for the specialized terms in an abstract.
// Empty or sentinel abstracts yield no terms without a model call.
func (a *Assistant) DetectTerms(ctx context.Context, text string) ([]string, error) {
	if text == "" || text == types.NoAbstract {
		return nil, nil
	}

	reply, err := a.Backend.Complete(ctx, Request{
		System:    detectSystem,
		Messages:  []Message{{Role: "user", Content: "Extract medical terms from this text:\n\n" + clip(text, 2000)}},
		MaxTokens: detectBudget,
	})
	if err != nil {
		return nil, err
	}

	var terms []string
	for _, t := range strings.Split(reply, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
		if len(terms) == maxDetectedTerms {
			break
		}
	}
	return terms, nil
}

// ExplainTerms produces a plain-language explanation for one or more
// terms. A single term yields a term_explanation document; several terms
// yield a multiple_terms document.
func (a *Assistant) ExplainTerms(ctx context.Context, rawTerms string, prefs types.UserPreferences) (types.TaggedDocument, error) {
	terms := SplitTerms(rawTerms)

	if len(terms) <= 1 {
		term := rawTerms
		if len(terms) == 1 {
			term = terms[0]
		}
		system := "You are an expert at explaining complex medical terminology in simple language. " +
			"Provide a clear, concise explanation of the term. Do not use asterisks, markdown formatting, or other special characters in your response." +
			styleClause(prefs)
		reply, err := a.Backend.Complete(ctx, Request{
			System:    system,
			Messages:  []Message{{Role: "user", Content: fmt.Sprintf("Explain the medical term '%s' in plain language:", term)}},
			MaxTokens: explainBudget,
		})
		if err != nil {
			return types.TaggedDocument{}, err
		}
		doc := tagdoc.Parse(types.DocTermExplanation, reply)
		// The model often replies with the bare definition; carry the
		// asked-for term when the reply had no "term:" lead.
		if len(doc.Terms) == 1 && doc.Terms[0].Term == "" {
			doc.Terms[0].Term = term
		}
		return doc, nil
	}

	var list strings.Builder
	for _, t := range terms {
		fmt.Fprintf(&list, "- %s\n", t)
	}
	system := "You are a medical terminology expert. Explain each of the listed medical terms in simple language that anyone can understand. " +
		"Format your response with each term on a new line, followed by a colon and then the explanation. " +
		"Do not use asterisks, markdown formatting, or other special characters in your response." +
		styleClause(prefs)
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Explain these medical terms in plain language:\n" + list.String()}},
		MaxTokens: multiTermBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocMultipleTerms, reply), nil
}

// AnalyzeMethodology asks the model for a structured methodology analysis
// of the given abstract text.
func (a *Assistant) AnalyzeMethodology(ctx context.Context, text string, prefs types.UserPreferences) (types.TaggedDocument, error) {
	system := "You are a research methodology expert. Analyze the provided text to identify and explain the research methodology. " +
		"Structure your response with clear sections, each with a heading: 1) Study Design, 2) Key Methodological Elements, 3) Strengths, and 4) Limitations. " +
		"Always include all four sections, especially the limitations section. If limitations aren't explicitly stated, analyze what potential limitations might exist based on the study design. " +
		"Do not use asterisks or other markdown formatting in your response." +
		styleClause(prefs)
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Analyze and explain the research methodology in this text:\n\n" + clip(text, 3500)}},
		MaxTokens: methodologyBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocMethodology, reply), nil
}

// FindResearchGaps asks the model for research gaps given the active
// query and a sample of result abstracts.
func (a *Assistant) FindResearchGaps(ctx context.Context, query string, abstracts []string, prefs types.UserPreferences) (types.TaggedDocument, error) {
	system := "You are a research gap analysis expert. Identify 3-5 potential research gaps related to the topic. " +
		"Format your response as clearly numbered points. Do not use asterisks or other markdown formatting in your response." +
		styleClause(prefs)
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Analyze these PubMed search results and identify research gaps:\n\n" + resultContext(query, abstracts)}},
		MaxTokens: gapsBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocResearchGaps, reply), nil
}

// SuggestQuestions asks the model for follow-on research questions based
// on the current search.
func (a *Assistant) SuggestQuestions(ctx context.Context, query string, abstracts []string, prefs types.UserPreferences) (types.TaggedDocument, error) {
	system := "You are a research mentor. Suggest 3-5 concrete, answerable research questions that follow from the search results. " +
		"Format your response as clearly numbered points. Do not use markdown formatting in your response." +
		styleClause(prefs)
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Suggest related research questions for these results:\n\n" + resultContext(query, abstracts)}},
		MaxTokens: questionsBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocGeneral, reply), nil
}

// CompareStudies asks the model to compare two citation records.
func (a *Assistant) CompareStudies(ctx context.Context, first, second types.CitationRecord, prefs types.UserPreferences) (types.TaggedDocument, error) {
	system := "You are a research analysis expert. Compare the two studies: their designs, methods, findings, and how their conclusions relate. " +
		"Use short labeled paragraphs. Do not use markdown formatting in your response." +
		styleClause(prefs)
	content := fmt.Sprintf("Study 1: %s\n%s\n\nStudy 2: %s\n%s",
		first.Title, clip(first.Abstract, 1500), second.Title, clip(second.Abstract, 1500))
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Compare these two studies:\n\n" + content}},
		MaxTokens: compareBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocStudyComparison, reply), nil
}

// LiteratureReview asks the model for a short narrative review of the
// fetched records on a topic.
func (a *Assistant) LiteratureReview(ctx context.Context, topic string, records []types.CitationRecord, prefs types.UserPreferences) (types.TaggedDocument, error) {
	var abstracts []string
	for _, r := range records {
		if r.HasAbstract() {
			abstracts = append(abstracts, r.Abstract)
		}
		if len(abstracts) == 5 {
			break
		}
	}
	system := "You are an academic writing assistant. Write a short narrative literature review of the provided abstracts: " +
		"summarize the themes, points of agreement, and disagreements. Do not use markdown formatting in your response." +
		styleClause(prefs)
	reply, err := a.Backend.Complete(ctx, Request{
		System:    system,
		Messages:  []Message{{Role: "user", Content: "Write a literature review on this topic:\n\n" + resultContext(topic, abstracts)}},
		MaxTokens: reviewBudget,
	})
	if err != nil {
		return types.TaggedDocument{}, err
	}
	return tagdoc.Parse(types.DocLiteratureReview, reply), nil
}

const chatSystem = "You are a specialized assistant for a PubMed search application. Your purpose is to assist users with PubMed-related tasks, " +
	"such as formulating search queries, interpreting search results, suggesting MeSH terms, or explaining PubMed syntax (e.g., AND, OR, [MeSH], [Author]). " +
	"When a user requests a search, respond with `[SEARCH: query]` to trigger a PubMed search, followed by a brief explanation of the query. " +
	"You can also assist with these specialized functions:\n" +
	"1. Explain medical terminology (respond to 'explain term X')\n" +
	"2. Identify research gaps (respond to 'find research gaps')\n" +
	"3. Analyze and summarize study methodologies (respond to 'explain methodology')\n" +
	"If the user's input is unrelated to PubMed, politely redirect them."

// emptySearchMarkerRe matches a [SEARCH:] marker with no query.
var emptySearchMarkerRe = regexp.MustCompile(`\[SEARCH:\s*\]`)

// Chat forwards the trailing conversation to the general assistant. The
// reply may embed a [SEARCH: query] marker; an empty marker is stripped
// and replaced with a request for a concrete query.
func (a *Assistant) Chat(ctx context.Context, history []types.Turn) (string, error) {
	start := 0
	if len(history) > historyWindow {
		start = len(history) - historyWindow
	}
	var messages []Message
	for _, turn := range history[start:] {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}

	reply, err := a.Backend.Complete(ctx, Request{
		System:    chatSystem,
		Messages:  messages,
		MaxTokens: chatBudget,
	})
	if err != nil {
		return "", err
	}

	if emptySearchMarkerRe.MatchString(reply) {
		reply = strings.TrimSpace(emptySearchMarkerRe.ReplaceAllString(reply, "")) +
			"\n\nPlease provide a specific query for me to search PubMed."
	}
	return reply, nil
}

// SplitTerms breaks free text naming one or more terms into a list: a
// comma-separated string, a bulleted/numbered list, or a single term.
func SplitTerms(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.Contains(raw, ",") {
		var terms []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		return terms
	}

	var items []string
	for _, line := range strings.Split(raw, "\n") {
		if m := listLineRe.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	if len(items) > 0 {
		return items
	}

	return []string{raw}
}

var listLineRe = regexp.MustCompile(`^\s*(?:\d+[.)]|[-•*])\s+(.+)$`)

// styleClause appends preference-driven guidance to a system prompt.
func styleClause(prefs types.UserPreferences) string {
	var b strings.Builder
	switch prefs.Complexity {
	case types.ComplexityBasic:
		b.WriteString(" Write for a general audience with no medical background.")
	case types.ComplexityAdvanced:
		b.WriteString(" Write for an expert audience; technical vocabulary is fine.")
	}
	switch prefs.DetailLevel {
	case types.DetailBrief:
		b.WriteString(" Keep the response brief.")
	case types.DetailDetailed:
		b.WriteString(" Give a thorough, detailed response.")
	}
	return b.String()
}

// resultContext assembles the topic plus sample abstracts sent to
// analysis prompts, clipped to keep the request small.
func resultContext(query string, abstracts []string) string {
	sample := abstracts
	if len(sample) > 3 {
		sample = sample[:3]
	}
	ctx := fmt.Sprintf("Topic: %s\nNumber of results found: %d\n\nSample abstracts:\n%s",
		query, len(abstracts), strings.Join(sample, " "))
	return clip(ctx, 3500)
}

// clip truncates s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
