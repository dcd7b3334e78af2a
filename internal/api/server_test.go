package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/listing"
	"github.com/streamlit-community/component-directory/internal/service"
)

// stubService implements service.CatalogService over a fixed catalog.
type stubService struct {
	catalog *catalog.Catalog
	err     error
}

func (s *stubService) GetCatalog(context.Context) (*catalog.Catalog, string, error) {
	return s.catalog, "stub", s.err
}

func (s *stubService) GetComponent(_ context.Context, owner, repo string) (*catalog.Component, error) {
	if s.err != nil {
		return nil, s.err
	}
	key, err := listing.RepoKey(fmt.Sprintf("https://github.com/%s/%s", owner, repo))
	if err != nil {
		return nil, err
	}
	comp, ok := s.catalog.Get(key)
	if !ok {
		return nil, service.ErrComponentNotFound
	}
	return comp, nil
}

func (s *stubService) ListCategories(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.catalog.Categories, nil
}

func (s *stubService) CheckReadiness(context.Context) error {
	return s.err
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		GeneratedAt:   "2026-08-30T00:00:00Z",
		SchemaVersion: catalog.SchemaVersion,
		Categories:    []string{"All", "Charts", "Maps"},
		Components: []catalog.Component{
			{
				Title:      "ECharts",
				GitHubURL:  "https://github.com/andfanilo/streamlit-echarts",
				Categories: []string{"Charts"},
			},
			{
				Title:      "Folium",
				GitHubURL:  "https://github.com/randyzwitch/streamlit-folium",
				Categories: []string{"Maps"},
			},
		},
	}
}

func newTestServer(svc service.CatalogService) *httptest.Server {
	router := NewServer(svc, WithMiddlewares(
		middleware.RequestID,
		MetricsMiddleware,
		LoggingMiddleware,
	))
	return httptest.NewServer(router)
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test URL
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))

	resp, body = get(t, srv.URL+"/readiness")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ready"}`, string(body))
}

func TestReadinessNotReady(t *testing.T) {
	srv := newTestServer(&stubService{err: fmt.Errorf("catalog missing")})
	defer srv.Close()

	resp, _ := get(t, srv.URL+"/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info map[string]string
	require.NoError(t, json.Unmarshal(body, &info))
	assert.NotEmpty(t, info["go_version"])
	assert.NotEmpty(t, info["platform"])
}

func TestCatalogInfo(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/info")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		SchemaVersion   int    `json:"schemaVersion"`
		Source          string `json:"source"`
		TotalComponents int    `json:"totalComponents"`
	}
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, catalog.SchemaVersion, info.SchemaVersion)
	assert.Equal(t, "stub", info.Source)
	assert.Equal(t, 2, info.TotalComponents)
}

func TestGetFullCatalog(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/catalog")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var c catalog.Catalog
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, []string{"All", "Charts", "Maps"}, c.Categories)
	assert.Len(t, c.Components, 2)
}

func TestListComponents(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/components")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var components []catalog.Component
	require.NoError(t, json.Unmarshal(body, &components))
	assert.Len(t, components, 2)
}

func TestListComponentsByCategory(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/components?category=Maps")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var components []catalog.Component
	require.NoError(t, json.Unmarshal(body, &components))
	require.Len(t, components, 1)
	assert.Equal(t, "Folium", components[0].Title)

	// "All" behaves like no filter.
	resp, body = get(t, srv.URL+"/v1/components?category=All")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &components))
	assert.Len(t, components, 2)
}

func TestGetComponent(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/components/randyzwitch/streamlit-folium")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var comp catalog.Component
	require.NoError(t, json.Unmarshal(body, &comp))
	assert.Equal(t, "Folium", comp.Title)

	resp, _ = get(t, srv.URL+"/v1/components/nobody/nothing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListCategories(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	resp, body := get(t, srv.URL+"/v1/categories")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cats []string
	require.NoError(t, json.Unmarshal(body, &cats))
	assert.Equal(t, []string{"All", "Charts", "Maps"}, cats)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubService{catalog: testCatalog()})
	defer srv.Close()

	// Generate some traffic first so the counters exist.
	_, _ = get(t, srv.URL+"/v1/catalog")

	resp, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "compdir_http_requests_total")
}
