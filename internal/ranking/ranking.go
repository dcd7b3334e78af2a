// Package ranking computes ranking signals for the compiled catalog.
//
// The score favors popular and recently maintained components:
//
//	starsScore   = log10(stars + 1)
//	recencyScore = exp(-daysSinceUpdate / halfLifeDays)
//	score        = w_stars*starsScore + w_recency*recencyScore
//	             + w_contributors*log10(contributors+1)
//	             + w_downloads*log10(downloadsLastMonth+1)
//
// daysSinceUpdate is the smaller of days since the last GitHub push and days
// since the latest PyPI release when both are known. Optional terms drop out
// of the sum when their inputs are missing, so a component with no recency
// data falls back to the stars-only term.
package ranking

import (
	"math"
	"time"

	"github.com/streamlit-community/component-directory/internal/catalog"
)

// Apply computes and attaches a ranking block to every component in the
// catalog. It returns the number of components processed.
func Apply(c *catalog.Catalog, cfg Config, now time.Time) int {
	for i := range c.Components {
		c.Components[i].Ranking = compute(&c.Components[i], cfg, now)
	}
	return len(c.Components)
}

func compute(comp *catalog.Component, cfg Config, now time.Time) *catalog.Ranking {
	stars := comp.Metrics.GitHub.Stars
	if stars < 0 {
		stars = 0
	}
	starsScore := math.Log10(float64(stars) + 1)
	score := cfg.Weights.Stars * starsScore

	signals := catalog.RankingSignals{StarsScore: starsScore}

	ghDays := daysSince(comp.Metrics.GitHub.LastPushAt, now)
	var pypiDays *float64
	if comp.Metrics.PyPI != nil {
		pypiDays = daysSince(comp.Metrics.PyPI.LatestReleaseAt, now)
	}
	signals.DaysSinceGithubPush = ghDays
	signals.DaysSincePypiRelease = pypiDays

	if days := minDays(ghDays, pypiDays); days != nil {
		signals.DaysSinceUpdate = days
		recency := math.Exp(-*days / cfg.HalfLifeDays)
		signals.RecencyScore = &recency
		score += cfg.Weights.Recency * recency
	}

	if c := comp.Metrics.GitHub.ContributorsCount; c != nil && *c >= 0 {
		contributorsScore := math.Log10(float64(*c) + 1)
		signals.ContributorsScore = &contributorsScore
		score += cfg.Weights.Contributors * contributorsScore
	}

	if comp.Metrics.PyPIStats != nil {
		if d := comp.Metrics.PyPIStats.LastMonth; d != nil && *d >= 0 {
			downloadsScore := math.Log10(float64(*d) + 1)
			signals.DownloadsScore = &downloadsScore
			score += cfg.Weights.Downloads * downloadsScore
		}
	}

	return &catalog.Ranking{
		Score:      score,
		Signals:    signals,
		ComputedAt: now.UTC().Format(time.RFC3339),
	}
}

// daysSince converts an RFC3339 timestamp into fractional days before now.
// Timestamps in the future (clock skew between sources) clamp to 0.
func daysSince(ts *string, now time.Time) *float64 {
	if ts == nil || *ts == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *ts)
	if err != nil {
		return nil
	}
	days := now.Sub(t).Seconds() / 86400.0
	if days < 0 {
		days = 0
	}
	return &days
}

func minDays(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *a < *b:
		return a
	default:
		return b
	}
}
