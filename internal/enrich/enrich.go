// Package enrich fetches external metrics (GitHub, PyPI, pypistats) for
// compiled catalog components.
//
// Enrichment is best-effort: a failed fetch marks the affected metrics bucket
// stale and keeps the previous values, it never fails the run. Components are
// processed with bounded parallelism; each component's record is only touched
// by one goroutine.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamlit-community/component-directory/internal/catalog"
)

// Enricher updates one metrics bucket of a component.
type Enricher interface {
	// Name identifies the metrics bucket, e.g. "github".
	Name() string

	// Needs reports whether the component's bucket should be (re)fetched.
	Needs(comp *catalog.Component, refreshOlderThan time.Duration, now time.Time) bool

	// Enrich fetches metrics and updates the component in place.
	Enrich(ctx context.Context, comp *catalog.Component, now time.Time) error
}

// Summary is the aggregate outcome of one enrichment run.
type Summary struct {
	Fetched int
	Skipped int
	Failed  int
}

// Engine runs a set of enrichers over a catalog.
type Engine struct {
	enrichers   []Enricher
	concurrency int
}

// NewEngine creates an enrichment engine. Concurrency below 1 is clamped to 1.
func NewEngine(concurrency int, enrichers ...Enricher) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{enrichers: enrichers, concurrency: concurrency}
}

// Run enriches every component in the catalog. Buckets fresher than
// refreshOlderThan are skipped. The returned summary counts bucket-level
// outcomes across all enrichers.
func (e *Engine) Run(ctx context.Context, c *catalog.Catalog, refreshOlderThan time.Duration) Summary {
	now := time.Now().UTC()

	var mu sync.Mutex
	var summary Summary

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range c.Components {
		comp := &c.Components[i]
		g.Go(func() error {
			for _, enricher := range e.enrichers {
				if !enricher.Needs(comp, refreshOlderThan, now) {
					mu.Lock()
					summary.Skipped++
					mu.Unlock()
					continue
				}

				err := enricher.Enrich(ctx, comp, now)
				mu.Lock()
				if err != nil {
					summary.Failed++
				} else {
					summary.Fetched++
				}
				mu.Unlock()

				if err != nil {
					slog.Warn("Enrichment fetch failed",
						"enricher", enricher.Name(),
						"component", comp.GitHubURL,
						"error", err)
				}
			}
			return nil
		})
	}

	// The group never returns an error; enrichment failures are recorded in
	// the summary instead.
	_ = g.Wait()
	return summary
}

// needsRefetch implements the shared staleness rule: fetch when never
// fetched, when marked stale, or when the last fetch is outside the window.
// A zero window forces a refetch.
func needsRefetch(fetchedAt *string, isStale *bool, refreshOlderThan time.Duration, now time.Time) bool {
	if fetchedAt == nil || *fetchedAt == "" {
		return true
	}
	if isStale != nil && *isStale {
		return true
	}
	if refreshOlderThan == 0 {
		return true
	}
	t, err := time.Parse(time.RFC3339, *fetchedAt)
	if err != nil {
		return true
	}
	return now.Sub(t) > refreshOlderThan
}

func timestamp(now time.Time) *string {
	s := now.UTC().Format(time.RFC3339)
	return &s
}

func boolPtr(b bool) *bool { return &b }
