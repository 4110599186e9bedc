package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOrderedPairsPreservesOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, SensitiveWordsFile)
	require.NoError(t, os.WriteFile(path, []byte(`{
		"zz": "1",
		"aa": "2",
		"mm": "3"
	}`), 0o644))

	words, err := LoadSensitiveWords(path)
	require.NoError(t, err)
	require.Len(t, words, 3)
	require.Equal(t, "zz", words[0].Pattern)
	require.Equal(t, "aa", words[1].Pattern)
	require.Equal(t, "mm", words[2].Pattern)
}

func TestLoadRulesCreatesDefaults(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "config")
	rules, err := LoadRules(dir)
	require.NoError(t, err)
	require.Zero(t, rules.Tags.Len())
	require.Empty(t, rules.AutoRules)
	require.Empty(t, rules.Sensitive)

	// all three files were initialized with an empty object
	for _, name := range []string{TagMappingFile, AutoTagMappingFile, SensitiveWordsFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		require.JSONEq(t, "{}", string(data))
	}

	// a second load reads the created defaults without touching them
	again, err := LoadRules(dir)
	require.NoError(t, err)
	require.Zero(t, again.Tags.Len())
}

func TestLoadTagRules(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), TagMappingFile)
	require.NoError(t, os.WriteFile(path, []byte(`{"主餐":"food","打车":"transport"}`), 0o644))

	tags, err := LoadTagRules(path)
	require.NoError(t, err)
	require.Equal(t, 2, tags.Len())

	tag, ok := tags.Resolve("主餐")
	require.True(t, ok)
	require.Equal(t, "food", tag)

	_, ok = tags.Resolve("missing")
	require.False(t, ok)

	require.Equal(t, []string{"主餐", "打车"}, tags.Words())
}

func TestLoadOrderedPairsRejectsMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), AutoTagMappingFile)
	require.NoError(t, os.WriteFile(path, []byte(`["not","an","object"]`), 0o644))

	_, err := LoadAutoRules(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"key": 42}`), 0o644))
	_, err = LoadAutoRules(path)
	require.Error(t, err)
}

func TestValidateMonth(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateMonth("202506"))
	require.Error(t, ValidateMonth("2025"))
	require.Error(t, ValidateMonth("202513"))
	require.Error(t, ValidateMonth("abc123"))
}
