package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/httpclient"
)

// Default API endpoints for the PyPI-derived enrichers.
const (
	DefaultPyPIAPIBase      = "https://pypi.org"
	DefaultPyPIStatsAPIBase = "https://pypistats.org"
)

// PyPIEnricher fetches release metadata from the PyPI JSON API.
type PyPIEnricher struct {
	client  httpclient.Client
	apiBase string
}

// NewPyPIEnricher creates a PyPI enricher. apiBase defaults to pypi.org when
// empty.
func NewPyPIEnricher(client httpclient.Client, apiBase string) *PyPIEnricher {
	if apiBase == "" {
		apiBase = DefaultPyPIAPIBase
	}
	return &PyPIEnricher{client: client, apiBase: apiBase}
}

// Name implements Enricher.
func (*PyPIEnricher) Name() string { return "pypi" }

// Needs implements Enricher. Components without a PyPI package are never
// fetched.
func (*PyPIEnricher) Needs(comp *catalog.Component, refreshOlderThan time.Duration, now time.Time) bool {
	if comp.PyPI == nil || *comp.PyPI == "" {
		return false
	}
	if comp.Metrics.PyPI == nil {
		return true
	}
	return needsRefetch(comp.Metrics.PyPI.FetchedAt, comp.Metrics.PyPI.IsStale, refreshOlderThan, now)
}

// Enrich implements Enricher.
func (e *PyPIEnricher) Enrich(ctx context.Context, comp *catalog.Component, now time.Time) error {
	if comp.Metrics.PyPI == nil {
		comp.Metrics.PyPI = &catalog.PyPIMetrics{}
	}

	pkgURL := fmt.Sprintf("%s/pypi/%s/json", e.apiBase, *comp.PyPI)
	resp, err := e.client.Get(ctx, pkgURL, nil)
	if err != nil {
		comp.Metrics.PyPI.IsStale = boolPtr(true)
		return fmt.Errorf("pypi fetch failed: %w", err)
	}

	m := comp.Metrics.PyPI
	if version := gjson.GetBytes(resp.Body, "info.version"); version.Type == gjson.String {
		v := version.Str
		m.Version = &v
	}

	// The latest release timestamp is the newest upload time across the
	// current release's files.
	var latest string
	for _, file := range gjson.GetBytes(resp.Body, "urls").Array() {
		if t := file.Get("upload_time_iso_8601"); t.Type == gjson.String && t.Str > latest {
			latest = t.Str
		}
	}
	if latest != "" {
		m.LatestReleaseAt = &latest
	}

	m.FetchedAt = timestamp(now)
	m.IsStale = boolPtr(false)
	return nil
}

// PyPIStatsEnricher fetches download counts from pypistats.org.
type PyPIStatsEnricher struct {
	client  httpclient.Client
	apiBase string
}

// NewPyPIStatsEnricher creates a pypistats enricher. apiBase defaults to
// pypistats.org when empty.
func NewPyPIStatsEnricher(client httpclient.Client, apiBase string) *PyPIStatsEnricher {
	if apiBase == "" {
		apiBase = DefaultPyPIStatsAPIBase
	}
	return &PyPIStatsEnricher{client: client, apiBase: apiBase}
}

// Name implements Enricher.
func (*PyPIStatsEnricher) Name() string { return "pypistats" }

// Needs implements Enricher.
func (*PyPIStatsEnricher) Needs(comp *catalog.Component, refreshOlderThan time.Duration, now time.Time) bool {
	if comp.PyPI == nil || *comp.PyPI == "" {
		return false
	}
	if comp.Metrics.PyPIStats == nil {
		return true
	}
	return needsRefetch(comp.Metrics.PyPIStats.FetchedAt, comp.Metrics.PyPIStats.IsStale, refreshOlderThan, now)
}

// Enrich implements Enricher.
func (e *PyPIStatsEnricher) Enrich(ctx context.Context, comp *catalog.Component, now time.Time) error {
	if comp.Metrics.PyPIStats == nil {
		comp.Metrics.PyPIStats = &catalog.PyPIStatsMetrics{}
	}

	statsURL := fmt.Sprintf("%s/api/packages/%s/recent", e.apiBase, *comp.PyPI)
	resp, err := e.client.Get(ctx, statsURL, nil)
	if err != nil {
		comp.Metrics.PyPIStats.IsStale = boolPtr(true)
		return fmt.Errorf("pypistats fetch failed: %w", err)
	}

	m := comp.Metrics.PyPIStats
	if lastMonth := gjson.GetBytes(resp.Body, "data.last_month"); lastMonth.Type == gjson.Number {
		v := int(lastMonth.Int())
		m.LastMonth = &v
	}

	m.FetchedAt = timestamp(now)
	m.IsStale = boolPtr(false)
	return nil
}
