package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/httpclient"
)

func TestPyPIEnricher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pypi/streamlit-aggrid/json", r.URL.Path)
		fmt.Fprint(w, `{
			"info": {"version": "1.1.7"},
			"urls": [
				{"upload_time_iso_8601": "2026-08-10T09:00:00.000000Z"},
				{"upload_time_iso_8601": "2026-08-10T09:05:00.000000Z"}
			]
		}`)
	}))
	defer srv.Close()

	e := NewPyPIEnricher(httpclient.NewDefaultClient(0), srv.URL)
	comp := &catalog.Component{PyPI: strPtr("streamlit-aggrid")}

	require.NoError(t, e.Enrich(context.Background(), comp, now))

	m := comp.Metrics.PyPI
	require.NotNil(t, m)
	require.NotNil(t, m.Version)
	assert.Equal(t, "1.1.7", *m.Version)
	require.NotNil(t, m.LatestReleaseAt)
	assert.Equal(t, "2026-08-10T09:05:00.000000Z", *m.LatestReleaseAt, "newest upload wins")
	require.NotNil(t, m.IsStale)
	assert.False(t, *m.IsStale)
}

func TestPyPIEnricherNeedsRequiresPackage(t *testing.T) {
	t.Parallel()

	e := NewPyPIEnricher(httpclient.NewDefaultClient(0), "")
	window := 24 * time.Hour

	assert.False(t, e.Needs(&catalog.Component{}, window, now))
	assert.False(t, e.Needs(&catalog.Component{PyPI: strPtr("")}, window, now))
	assert.True(t, e.Needs(&catalog.Component{PyPI: strPtr("streamlit-aggrid")}, window, now))
}

func TestPyPIEnricherFailureMarksStale(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewPyPIEnricher(httpclient.NewDefaultClient(0), srv.URL)
	comp := &catalog.Component{PyPI: strPtr("streamlit-aggrid")}

	err := e.Enrich(context.Background(), comp, now)
	require.Error(t, err)
	require.NotNil(t, comp.Metrics.PyPI)
	require.NotNil(t, comp.Metrics.PyPI.IsStale)
	assert.True(t, *comp.Metrics.PyPI.IsStale)
}

func TestPyPIStatsEnricher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/packages/streamlit-aggrid/recent", r.URL.Path)
		fmt.Fprint(w, `{"data": {"last_day": 1000, "last_month": 250000, "last_week": 60000}}`)
	}))
	defer srv.Close()

	e := NewPyPIStatsEnricher(httpclient.NewDefaultClient(0), srv.URL)
	comp := &catalog.Component{PyPI: strPtr("streamlit-aggrid")}

	require.NoError(t, e.Enrich(context.Background(), comp, now))

	m := comp.Metrics.PyPIStats
	require.NotNil(t, m)
	require.NotNil(t, m.LastMonth)
	assert.Equal(t, 250000, *m.LastMonth)
	require.NotNil(t, m.IsStale)
	assert.False(t, *m.IsStale)
}
