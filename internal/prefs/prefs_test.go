// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	prefs := s.Load("newuser")
	assert.Equal(t, types.DefaultPreferences(), prefs)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	want := types.UserPreferences{
		Complexity:        types.ComplexityAdvanced,
		DetailLevel:       types.DetailDetailed,
		CitationStyle:     types.StyleAPA,
		TutorialCompleted: true,
	}
	require.NoError(t, s.Save("alice", want))
	assert.Equal(t, want, s.Load("alice"))
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.yaml"), []byte("{not yaml"), 0o644))
	assert.Equal(t, types.DefaultPreferences(), s.Load("alice"))
}

func TestLoadInvalidValuesResetPerField(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	raw := "complexity: Extreme\ndetail_level: Brief\ncitation_style: Nonsense\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.yaml"), []byte(raw), 0o644))

	prefs := s.Load("alice")
	assert.Equal(t, types.ComplexityIntermediate, prefs.Complexity)
	assert.Equal(t, types.DetailBrief, prefs.DetailLevel)
	assert.Equal(t, types.StyleVancouver, prefs.CitationStyle)
}

func TestUsernameSanitizedInPath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save("../evil/user", types.DefaultPreferences()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._evil_user.yaml", entries[0].Name())
}
