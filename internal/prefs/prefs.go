// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prefs stores per-user preference documents as YAML files, one
// per username.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Store reads and writes preference files under a single directory.
type Store struct {
	dir string
}

// NewStore creates the preferences directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating preferences directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// filenameSafeRe keeps usernames from escaping the preferences directory.
var filenameSafeRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func (s *Store) path(username string) string {
	safe := filenameSafeRe.ReplaceAllString(username, "_")
	return filepath.Join(s.dir, safe+".yaml")
}

// Load returns the stored preferences for username, or the defaults when
// no file exists yet. A corrupt file also falls back to defaults rather
// than blocking the user.
func (s *Store) Load(username string) types.UserPreferences {
	data, err := os.ReadFile(s.path(username))
	if err != nil {
		return types.DefaultPreferences()
	}

	prefs := types.DefaultPreferences()
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return types.DefaultPreferences()
	}

	// Unknown values from hand-edited files reset to defaults per field.
	if !types.ValidComplexity(prefs.Complexity) {
		prefs.Complexity = types.ComplexityIntermediate
	}
	if !types.ValidDetailLevel(prefs.DetailLevel) {
		prefs.DetailLevel = types.DetailStandard
	}
	if !types.ValidCitationStyle(prefs.CitationStyle) {
		prefs.CitationStyle = types.StyleVancouver
	}
	return prefs
}

// Save writes the preferences for username.
func (s *Store) Save(username string, prefs types.UserPreferences) error {
	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	if err := os.WriteFile(s.path(username), data, 0o644); err != nil {
		return fmt.Errorf("writing preferences file: %w", err)
	}
	return nil
}
