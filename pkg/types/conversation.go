// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnKind distinguishes plain text turns from turns that carry a parsed
// tagged document.
type TurnKind string

const (
	TurnPlain  TurnKind = "plain"
	TurnTagged TurnKind = "tagged"
)

// Turn is one entry in the append-only conversation history. Content always
// holds the raw text; Doc is set when Kind is TurnTagged.
type Turn struct {
	Role    Role
	Content string
	Kind    TurnKind
	Doc     *TaggedDocument
}

// DocumentKind identifies the variant of a TaggedDocument.
type DocumentKind string

const (
	DocTermExplanation  DocumentKind = "term_explanation"
	DocMultipleTerms    DocumentKind = "multiple_terms"
	DocMethodology      DocumentKind = "methodology"
	DocResearchGaps     DocumentKind = "research_gaps"
	DocStudyComparison  DocumentKind = "study_comparison"
	DocLiteratureReview DocumentKind = "literature_review"
	DocGeneral          DocumentKind = "general"
)

// TermEntry pairs a term with its plain-language definition.
type TermEntry struct {
	Term       string
	Definition string
}

// MethodologyReport holds the four labeled sections of a methodology
// analysis. Sections that could not be located hold placeholder text.
type MethodologyReport struct {
	Design      string
	Methods     string
	Strengths   string
	Limitations string
}

// TaggedDocument is the internal structured payload moving parsed
// analytical content from generation to rendering. Exactly the fields for
// Kind are populated; everything else is zero. Extraction from model output
// is heuristic and lossy, so any variant may degrade to DocGeneral with the
// raw text in Content.
type TaggedDocument struct {
	Kind    DocumentKind
	Terms   []TermEntry        // DocTermExplanation, DocMultipleTerms
	Report  *MethodologyReport // DocMethodology
	Gaps    []string           // DocResearchGaps
	Content string             // DocGeneral and opaque fallbacks
}

// PendingKind identifies a deferred operation queued from a non-chat view.
type PendingKind string

const (
	PendingExplainTerms      PendingKind = "explain_terms"
	PendingMethodology       PendingKind = "methodology"
	PendingGapAnalysis       PendingKind = "gap_analysis"
	PendingResearchQuestions PendingKind = "research_questions"
)

// PendingAction is a deferred-call descriptor. Actions are enqueued by the
// search page and consumed exactly once on the next router invocation.
type PendingAction struct {
	Kind PendingKind
	// Terms holds the detected terms for PendingExplainTerms.
	Terms []string
	// Article is the 1-based article number the action refers to, or 0.
	Article int
}
