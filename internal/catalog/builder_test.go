package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aggridListing = `{
	"schemaVersion": 1,
	"title": "AgGrid",
	"author": {"github": "PablocFonseca"},
	"links": {
		"github": "https://github.com/PablocFonseca/streamlit-aggrid",
		"pypi": "streamlit-aggrid",
		"demo": "https://aggrid.example.com"
	},
	"install": {"pip": "pip install streamlit-aggrid"},
	"categories": ["Dataframes"]
}`

const foliumListing = `{
	"schemaVersion": 1,
	"title": "Folium",
	"author": {"github": "randyzwitch"},
	"links": {
		"github": "https://github.com/randyzwitch/streamlit-folium",
		"pypi": "streamlit-folium"
	},
	"install": {"pip": "pip install streamlit-folium"},
	"categories": ["Maps", "Charts"]
}`

func writeListings(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestBuild(t *testing.T) {
	t.Parallel()

	dir := writeListings(t, map[string]string{
		"streamlit-aggrid.json": aggridListing,
		"streamlit-folium.json": foliumListing,
	})

	compiled, errs, err := NewBuilder().Build(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.NotNil(t, compiled)

	assert.Equal(t, SchemaVersion, compiled.SchemaVersion)
	assert.NotEmpty(t, compiled.GeneratedAt)
	require.NotEmpty(t, compiled.Categories)
	assert.Equal(t, "All", compiled.Categories[0])

	require.Len(t, compiled.Components, 2)
	// Sorted by GitHub URL.
	assert.Equal(t, "https://github.com/PablocFonseca/streamlit-aggrid", compiled.Components[0].GitHubURL)
	assert.Equal(t, "https://github.com/randyzwitch/streamlit-folium", compiled.Components[1].GitHubURL)

	aggrid := compiled.Components[0]
	assert.Equal(t, "AgGrid", aggrid.Title)
	assert.Equal(t, "PablocFonseca", aggrid.Author)
	assert.Equal(t, "https://github.com/PablocFonseca", aggrid.SocialURL)
	require.NotNil(t, aggrid.PipLink)
	assert.Equal(t, "pip install streamlit-aggrid", *aggrid.PipLink)
	require.NotNil(t, aggrid.PyPI)
	assert.Equal(t, "streamlit-aggrid", *aggrid.PyPI)
	require.NotNil(t, aggrid.AppURL)
	assert.Equal(t, "https://aggrid.example.com", *aggrid.AppURL)
	assert.True(t, aggrid.Enabled)
	assert.Equal(t, []string{"Dataframes"}, aggrid.Categories)
	assert.NotContains(t, aggrid.Categories, "All")

	require.NoError(t, compiled.Validate())
}

func TestBuildCarriesForwardMetrics(t *testing.T) {
	t.Parallel()

	dir := writeListings(t, map[string]string{"streamlit-aggrid.json": aggridListing})

	fetchedAt := "2026-08-01T00:00:00Z"
	previous := &Catalog{
		SchemaVersion: SchemaVersion,
		Categories:    []string{"All", "Dataframes"},
		Components: []Component{{
			Title:     "AgGrid",
			GitHubURL: "https://github.com/pablocfonseca/STREAMLIT-AGGRID",
			Metrics: Metrics{
				GitHub: GitHubMetrics{Stars: 1200, FetchedAt: &fetchedAt},
			},
		}},
	}

	compiled, errs, err := NewBuilder().Build(dir, previous)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, compiled.Components, 1)

	// Metrics matched on the case-insensitive repo key despite the URL
	// spelling changing between runs.
	assert.Equal(t, 1200, compiled.Components[0].Metrics.GitHub.Stars)
	require.NotNil(t, compiled.Components[0].Metrics.GitHub.FetchedAt)
	assert.Equal(t, fetchedAt, *compiled.Components[0].Metrics.GitHub.FetchedAt)
}

func TestBuildReportsInvalidListings(t *testing.T) {
	t.Parallel()

	dir := writeListings(t, map[string]string{
		"streamlit-aggrid.json": aggridListing,
		"broken.json":           `{"schemaVersion": 1, "title": ""}`,
	})

	compiled, errs, err := NewBuilder().Build(dir, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
	require.Len(t, compiled.Components, 1)
	for _, be := range errs {
		assert.Equal(t, "broken.json", be.File)
	}
}

func TestBuildRejectsDuplicateIdentity(t *testing.T) {
	t.Parallel()

	mirror := `{
		"schemaVersion": 1,
		"title": "AgGrid Mirror",
		"author": {"github": "mirror"},
		"links": {"github": "https://github.com/PABLOCFONSECA/streamlit-aggrid"},
		"install": {"pip": "pip install streamlit-aggrid"},
		"categories": ["Dataframes"]
	}`

	dir := writeListings(t, map[string]string{
		"aggrid-mirror.json":    mirror,
		"streamlit-aggrid.json": aggridListing,
	})

	compiled, errs, err := NewBuilder().Build(dir, nil)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "streamlit-aggrid.json", errs[0].File, "second file in sort order loses")
	assert.Contains(t, errs[0].Message, "duplicate component identity")
	require.Len(t, compiled.Components, 1)
}

func TestBuildDisabledListingKeepsEnabledFlag(t *testing.T) {
	t.Parallel()

	disabled := `{
		"schemaVersion": 1,
		"title": "Old Widget",
		"author": {"github": "acme"},
		"links": {"github": "https://github.com/acme/old-widget"},
		"install": {"pip": "pip install old-widget"},
		"governance": {"enabled": false},
		"categories": ["Widgets"]
	}`

	dir := writeListings(t, map[string]string{"old-widget.json": disabled})

	compiled, errs, err := NewBuilder().Build(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, compiled.Components, 1)
	assert.False(t, compiled.Components[0].Enabled)
}

func TestCatalogValidate(t *testing.T) {
	t.Parallel()

	valid := &Catalog{
		SchemaVersion: SchemaVersion,
		Categories:    []string{"All", "Charts"},
		Components: []Component{{
			Title:      "Widget",
			GitHubURL:  "https://github.com/acme/widget",
			Categories: []string{"Charts"},
		}},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Catalog)
		errMsg string
	}{
		{
			name:   "wrong_schema_version",
			mutate: func(c *Catalog) { c.SchemaVersion = 99 },
			errMsg: "unsupported compiled schema version",
		},
		{
			name:   "missing_all_prefix",
			mutate: func(c *Catalog) { c.Categories = []string{"Charts"} },
			errMsg: `must start with "All"`,
		},
		{
			name: "duplicate_identity",
			mutate: func(c *Catalog) {
				c.Components = append(c.Components, Component{
					Title:      "Widget Copy",
					GitHubURL:  "https://github.com/ACME/WIDGET",
					Categories: []string{"Charts"},
				})
			},
			errMsg: "duplicate component identity",
		},
		{
			name:   "component_without_categories",
			mutate: func(c *Catalog) { c.Components[0].Categories = nil },
			errMsg: "no categories",
		},
		{
			name:   "component_with_all_category",
			mutate: func(c *Catalog) { c.Components[0].Categories = []string{"All"} },
			errMsg: "reserved category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &Catalog{
				SchemaVersion: SchemaVersion,
				Categories:    []string{"All", "Charts"},
				Components: []Component{{
					Title:      "Widget",
					GitHubURL:  "https://github.com/acme/widget",
					Categories: []string{"Charts"},
				}},
			}
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
