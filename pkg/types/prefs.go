// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Complexity is the preferred explanation complexity level.
type Complexity string

const (
	ComplexityBasic        Complexity = "Basic"
	ComplexityIntermediate Complexity = "Intermediate"
	ComplexityAdvanced     Complexity = "Advanced"
)

// DetailLevel is the preferred response length.
type DetailLevel string

const (
	DetailBrief    DetailLevel = "Brief"
	DetailStandard DetailLevel = "Standard"
	DetailDetailed DetailLevel = "Detailed"
)

// CitationStyle selects the reference format used by the /cite command and
// the result page.
type CitationStyle string

const (
	StyleAPA       CitationStyle = "APA"
	StyleMLA       CitationStyle = "MLA"
	StyleChicago   CitationStyle = "Chicago"
	StyleVancouver CitationStyle = "Vancouver"
)

// UserPreferences is the per-account settings document, persisted as one
// YAML file per username.
type UserPreferences struct {
	Complexity        Complexity    `yaml:"complexity"`
	DetailLevel       DetailLevel   `yaml:"detail_level"`
	CitationStyle     CitationStyle `yaml:"citation_style"`
	TutorialCompleted bool          `yaml:"tutorial_completed"`
}

// DefaultPreferences returns the settings applied on first access.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Complexity:    ComplexityIntermediate,
		DetailLevel:   DetailStandard,
		CitationStyle: StyleVancouver,
	}
}

// ValidComplexity reports whether s (case-folded elsewhere) is a known level.
func ValidComplexity(s Complexity) bool {
	switch s {
	case ComplexityBasic, ComplexityIntermediate, ComplexityAdvanced:
		return true
	}
	return false
}

// ValidDetailLevel reports whether s is a known level.
func ValidDetailLevel(s DetailLevel) bool {
	switch s {
	case DetailBrief, DetailStandard, DetailDetailed:
		return true
	}
	return false
}

// ValidCitationStyle reports whether s is a known style.
func ValidCitationStyle(s CitationStyle) bool {
	switch s {
	case StyleAPA, StyleMLA, StyleChicago, StyleVancouver:
		return true
	}
	return false
}
