package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "compiled", "catalog.json")
	c := &Catalog{
		GeneratedAt:   "2026-08-30T00:00:00Z",
		SchemaVersion: SchemaVersion,
		Categories:    []string{"All", "Charts"},
		Components: []Component{{
			Title:      "Widget",
			Author:     "acme",
			GitHubURL:  "https://github.com/acme/widget",
			Enabled:    true,
			SocialURL:  "https://github.com/acme",
			Categories: []string{"Charts"},
		}},
	}

	require.NoError(t, Save(path, c))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestSaveIsHumanDiffable(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, Save(path, &Catalog{
		SchemaVersion: SchemaVersion,
		Categories:    []string{"All"},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"), "artifact ends with a newline")
	assert.Contains(t, string(data), "\n  \"schemaVersion\"", "2-space indentation")
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"components": `), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, Save(path, &Catalog{SchemaVersion: SchemaVersion, Categories: []string{"All"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".catalog-"), "temp file left behind: %s", entry.Name())
	}
}
