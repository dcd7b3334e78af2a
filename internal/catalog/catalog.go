// Package catalog provides the compiled directory artifact format.
//
// The compiled catalog is the single aggregate file assembled from all valid
// listings. It is a build artifact: each run produces a fresh snapshot, with
// last-known-good metrics carried forward from the previous artifact so that
// skipping enrichment never regresses displayed numbers.
package catalog

import (
	"fmt"

	"github.com/streamlit-community/component-directory/internal/listing"
)

// SchemaVersion is the compiled artifact schema version.
const SchemaVersion = 1

// Catalog is the compiled aggregate of all accepted listings.
type Catalog struct {
	// GeneratedAt is the RFC3339 timestamp of the build.
	GeneratedAt string `json:"generatedAt"`

	// SchemaVersion is the compiled artifact schema version.
	SchemaVersion int `json:"schemaVersion"`

	// Categories is the fixed taxonomy prefixed with "All", the implied
	// UI filter mode.
	Categories []string `json:"categories"`

	Components []Component `json:"components"`
}

// Component is one compiled catalog entry.
type Component struct {
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	PipLink    *string  `json:"pipLink"`
	PyPI       *string  `json:"pypi"`
	Categories []string `json:"categories"`
	Image      *string  `json:"image"`
	GitHubURL  string   `json:"gitHubUrl"`
	Enabled    bool     `json:"enabled"`
	AppURL     *string  `json:"appUrl"`
	SocialURL  string   `json:"socialUrl"`
	Metrics    Metrics  `json:"metrics"`
	Ranking    *Ranking `json:"ranking,omitempty"`
}

// RepoKey returns the component's stable identity, "owner/repo" lowercased.
func (c *Component) RepoKey() (string, error) {
	return listing.RepoKey(c.GitHubURL)
}

// Metrics groups the enrichment buckets. Absent buckets stay null in the
// artifact so carried-forward and never-fetched states are distinguishable.
type Metrics struct {
	GitHub    GitHubMetrics     `json:"github"`
	PyPI      *PyPIMetrics      `json:"pypi"`
	PyPIStats *PyPIStatsMetrics `json:"pypistats"`
}

// GitHubMetrics holds repository metrics from the GitHub API.
type GitHubMetrics struct {
	// Stars defaults to 0 rather than null to match the gallery UI
	// expectations.
	Stars             int     `json:"stars"`
	Forks             *int    `json:"forks"`
	OpenIssues        *int    `json:"openIssues"`
	ContributorsCount *int    `json:"contributorsCount"`
	LastPushAt        *string `json:"lastPushAt"`
	FetchedAt         *string `json:"fetchedAt"`
	IsStale           *bool   `json:"isStale"`
}

// PyPIMetrics holds release metadata from the PyPI JSON API.
type PyPIMetrics struct {
	Version         *string `json:"version"`
	LatestReleaseAt *string `json:"latestReleaseAt"`
	FetchedAt       *string `json:"fetchedAt"`
	IsStale         *bool   `json:"isStale"`
}

// PyPIStatsMetrics holds download counts from pypistats.org.
type PyPIStatsMetrics struct {
	LastMonth *int    `json:"lastMonth"`
	FetchedAt *string `json:"fetchedAt"`
	IsStale   *bool   `json:"isStale"`
}

// Ranking is the computed ranking block. Signals are persisted alongside the
// score to keep the ranking explainable.
type Ranking struct {
	Score      float64        `json:"score"`
	Signals    RankingSignals `json:"signals"`
	ComputedAt string         `json:"computedAt"`
}

// RankingSignals are the individual terms feeding the score.
type RankingSignals struct {
	StarsScore           float64  `json:"starsScore"`
	RecencyScore         *float64 `json:"recencyScore"`
	ContributorsScore    *float64 `json:"contributorsScore"`
	DownloadsScore       *float64 `json:"downloadsScore"`
	DaysSinceUpdate      *float64 `json:"daysSinceUpdate"`
	DaysSinceGithubPush  *float64 `json:"daysSinceGithubPush"`
	DaysSincePypiRelease *float64 `json:"daysSincePypiRelease"`
}

// Validate sanity-checks a compiled artifact, used by the pipeline after
// build and enrichment steps.
func (c *Catalog) Validate() error {
	if c.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported compiled schema version %d (supported: %d)",
			c.SchemaVersion, SchemaVersion)
	}
	if len(c.Categories) == 0 || c.Categories[0] != "All" {
		return fmt.Errorf("catalog categories must start with \"All\"")
	}

	seen := make(map[string]string, len(c.Components))
	for i := range c.Components {
		comp := &c.Components[i]
		key, err := comp.RepoKey()
		if err != nil {
			return fmt.Errorf("component %q: %w", comp.Title, err)
		}
		if other, dup := seen[key]; dup {
			return fmt.Errorf("duplicate component identity %q (%q and %q)", key, other, comp.Title)
		}
		seen[key] = comp.Title

		if len(comp.Categories) == 0 {
			return fmt.Errorf("component %q has no categories", comp.Title)
		}
		for _, cat := range comp.Categories {
			if cat == "All" {
				return fmt.Errorf("component %q uses the reserved category \"All\"", comp.Title)
			}
		}
	}
	return nil
}

// Get returns the component with the given repo key, if present.
func (c *Catalog) Get(repoKey string) (*Component, bool) {
	for i := range c.Components {
		key, err := c.Components[i].RepoKey()
		if err != nil {
			continue
		}
		if key == repoKey {
			return &c.Components[i], true
		}
	}
	return nil, false
}
