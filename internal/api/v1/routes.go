// Package v1 provides the REST API handlers for catalog access.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamlit-community/component-directory/internal/service"
	"github.com/streamlit-community/component-directory/pkg/versions"
)

// CatalogInfoResponse represents the catalog information response
type CatalogInfoResponse struct {
	SchemaVersion   int    `json:"schemaVersion"`
	GeneratedAt     string `json:"generatedAt"`
	Source          string `json:"source"`
	TotalComponents int    `json:"totalComponents"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the catalog API with dependency injection
type Routes struct {
	service service.CatalogService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.CatalogService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the catalog API
func Router(svc service.CatalogService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/info", routes.getCatalogInfo)
	r.Get("/catalog", routes.getCatalog)
	r.Get("/components", routes.listComponents)
	r.Get("/components/{owner}/{repo}", routes.getComponent)
	r.Get("/categories", routes.listCategories)

	return r
}

// getCatalogInfo handles GET /v1/info
func (rr *Routes) getCatalogInfo(w http.ResponseWriter, r *http.Request) {
	c, source, err := rr.service.GetCatalog(r.Context())
	if err != nil {
		slog.Error("Failed to get catalog", "error", err)
		rr.writeErrorResponse(w, "Failed to get catalog information", http.StatusInternalServerError)
		return
	}

	info := CatalogInfoResponse{
		SchemaVersion:   c.SchemaVersion,
		GeneratedAt:     c.GeneratedAt,
		Source:          source,
		TotalComponents: len(c.Components),
	}

	rr.writeJSONResponse(w, info)
}

// getCatalog handles GET /v1/catalog, returning the full compiled artifact
func (rr *Routes) getCatalog(w http.ResponseWriter, r *http.Request) {
	c, _, err := rr.service.GetCatalog(r.Context())
	if err != nil {
		slog.Error("Failed to get catalog", "error", err)
		rr.writeErrorResponse(w, "Failed to get catalog", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, c)
}

// listComponents handles GET /v1/components with an optional ?category=
// filter
func (rr *Routes) listComponents(w http.ResponseWriter, r *http.Request) {
	c, _, err := rr.service.GetCatalog(r.Context())
	if err != nil {
		slog.Error("Failed to get catalog", "error", err)
		rr.writeErrorResponse(w, "Failed to list components", http.StatusInternalServerError)
		return
	}

	components := c.Components
	if category := r.URL.Query().Get("category"); category != "" && category != "All" {
		filtered := components[:0:0]
		for _, comp := range components {
			for _, cat := range comp.Categories {
				if cat == category {
					filtered = append(filtered, comp)
					break
				}
			}
		}
		components = filtered
	}

	rr.writeJSONResponse(w, components)
}

// getComponent handles GET /v1/components/{owner}/{repo}
func (rr *Routes) getComponent(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	comp, err := rr.service.GetComponent(r.Context(), owner, repo)
	if err != nil {
		if errors.Is(err, service.ErrComponentNotFound) {
			rr.writeErrorResponse(w, "Component not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get component", "owner", owner, "repo", repo, "error", err)
		rr.writeErrorResponse(w, "Failed to get component", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, comp)
}

// listCategories handles GET /v1/categories
func (rr *Routes) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := rr.service.ListCategories(r.Context())
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		rr.writeErrorResponse(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}

	rr.writeJSONResponse(w, categories)
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(svc service.CatalogService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests
func readinessHandler(svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Catalog not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				slog.Error("Failed to encode readiness error response", "error", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
