package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/streamlit-community/component-directory/internal/listing"
	"github.com/streamlit-community/component-directory/internal/schema"
)

// BuildError is one problem encountered while compiling a listing.
type BuildError struct {
	File    string `json:"file"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (e BuildError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Builder compiles listing submissions into a Catalog.
type Builder struct {
	skipInvalid bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSkipInvalid makes the builder skip invalid listings instead of failing
// the whole build.
func WithSkipInvalid() BuilderOption {
	return func(b *Builder) {
		b.skipInvalid = true
	}
}

// NewBuilder creates a catalog builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build compiles every listing under listingsDir into a fresh Catalog.
// previous, when non-nil, supplies last-known-good metrics to carry forward.
// Build errors are collected per file and never abort processing of the
// remaining listings; callers decide whether they fail the build (the
// skip-invalid switch only controls whether an errored file blocks the
// artifact, reported errors are returned either way).
func (b *Builder) Build(listingsDir string, previous *Catalog) (*Catalog, []BuildError, error) {
	categories, err := schema.Categories()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category taxonomy: %w", err)
	}

	entries, err := os.ReadDir(listingsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read listings directory %s: %w", listingsDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	prevIndex := indexPrevious(previous)

	var errs []BuildError
	components := make([]Component, 0, len(files))
	seenKeys := make(map[string]string, len(files))

	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(listingsDir, name))
		if err != nil {
			errs = append(errs, BuildError{File: name, Message: fmt.Sprintf("could not read file: %v", err)})
			continue
		}

		issues, err := schema.Check(data)
		if err != nil {
			errs = append(errs, BuildError{File: name, Path: "$", Message: err.Error()})
			continue
		}
		if len(issues) > 0 {
			for _, issue := range issues {
				errs = append(errs, BuildError{File: name, Path: issue.Path, Message: issue.Message})
			}
			continue
		}

		doc, err := listing.Parse(data)
		if err != nil {
			errs = append(errs, BuildError{File: name, Message: err.Error()})
			continue
		}

		githubURL, err := listing.NormalizeGitHubRepoURL(doc.Links.GitHub)
		if err != nil {
			errs = append(errs, BuildError{File: name, Path: "links.github", Message: err.Error()})
			continue
		}
		key, err := listing.RepoKey(githubURL)
		if err != nil {
			errs = append(errs, BuildError{File: name, Path: "links.github", Message: err.Error()})
			continue
		}
		if other, dup := seenKeys[key]; dup {
			errs = append(errs, BuildError{
				File: name,
				Path: "links.github",
				Message: fmt.Sprintf("duplicate component identity (same GitHub repo as %s): %s",
					other, key),
			})
			continue
		}
		seenKeys[key] = name

		components = append(components, compileComponent(doc, githubURL, prevIndex[key]))
	}

	// Deterministic ordering for stable diffs.
	sort.Slice(components, func(i, j int) bool {
		if components[i].GitHubURL != components[j].GitHubURL {
			return components[i].GitHubURL < components[j].GitHubURL
		}
		return components[i].Title < components[j].Title
	})

	compiled := &Catalog{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: SchemaVersion,
		Categories:    append([]string{"All"}, categories...),
		Components:    components,
	}
	return compiled, errs, nil
}

// indexPrevious indexes a previous artifact's components by repo key.
// Components whose URL no longer parses are dropped from the index.
func indexPrevious(previous *Catalog) map[string]*Component {
	if previous == nil {
		return nil
	}
	out := make(map[string]*Component, len(previous.Components))
	for i := range previous.Components {
		key, err := previous.Components[i].RepoKey()
		if err != nil {
			continue
		}
		out[key] = &previous.Components[i]
	}
	return out
}

// compileComponent maps one valid submission to its compiled record, carrying
// forward metrics from the previous artifact when available.
func compileComponent(doc *listing.ComponentListing, githubURL string, prev *Component) Component {
	comp := Component{
		Title:      doc.Title,
		Author:     doc.Author.GitHub,
		Categories: componentCategories(doc.Categories),
		GitHubURL:  githubURL,
		Enabled:    doc.Enabled(),
		SocialURL:  "https://github.com/" + doc.Author.GitHub,
	}

	if cmd := doc.PipCommand(); cmd != "" {
		comp.PipLink = &cmd
	}
	if doc.Links.PyPI != "" {
		pypi := doc.Links.PyPI
		comp.PyPI = &pypi
	}
	if doc.Links.Demo != "" {
		demo := doc.Links.Demo
		comp.AppURL = &demo
	}
	if img := doc.ImageURL(); img != "" {
		comp.Image = &img
	}

	if prev != nil {
		comp.Metrics = prev.Metrics
	}
	// Default stars to 0 is implied by the zero value.

	return comp
}

// componentCategories filters the submitted categories for the compiled
// record. "All" is an implied UI filter mode, not a real assignment, and is
// never stored per component.
func componentCategories(submitted []string) []string {
	out := make([]string, 0, len(submitted))
	for _, c := range submitted {
		if c == "All" {
			continue
		}
		dup := false
		for _, existing := range out {
			if existing == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}
