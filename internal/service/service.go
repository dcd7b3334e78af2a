// Package service provides the business logic for the catalog API.
package service

import (
	"context"
	"fmt"

	"github.com/streamlit-community/component-directory/internal/catalog"
	"github.com/streamlit-community/component-directory/internal/listing"
)

// CatalogService defines the read operations exposed by the API server.
type CatalogService interface {
	// GetCatalog returns the current compiled catalog and its source label.
	GetCatalog(ctx context.Context) (*catalog.Catalog, string, error)

	// GetComponent returns the component identified by owner/repo
	// (case-insensitive). Returns ErrComponentNotFound when absent.
	GetComponent(ctx context.Context, owner, repo string) (*catalog.Component, error)

	// ListCategories returns the catalog-level category taxonomy.
	ListCategories(ctx context.Context) ([]string, error)

	// CheckReadiness verifies the catalog is loadable.
	CheckReadiness(ctx context.Context) error
}

// ErrComponentNotFound is returned when no component matches a repo key.
var ErrComponentNotFound = fmt.Errorf("component not found")

type catalogService struct {
	provider CatalogDataProvider
}

// NewCatalogService creates a CatalogService backed by the given provider.
func NewCatalogService(provider CatalogDataProvider) CatalogService {
	return &catalogService{provider: provider}
}

func (s *catalogService) GetCatalog(ctx context.Context) (*catalog.Catalog, string, error) {
	c, err := s.provider.GetCatalogData(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get catalog: %w", err)
	}
	return c, s.provider.GetSource(), nil
}

func (s *catalogService) GetComponent(ctx context.Context, owner, repo string) (*catalog.Component, error) {
	c, err := s.provider.GetCatalogData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	key, err := listing.RepoKey(fmt.Sprintf("https://github.com/%s/%s", owner, repo))
	if err != nil {
		return nil, fmt.Errorf("invalid component identity: %w", err)
	}
	comp, ok := c.Get(key)
	if !ok {
		return nil, ErrComponentNotFound
	}
	return comp, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]string, error) {
	c, err := s.provider.GetCatalogData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	return c.Categories, nil
}

func (s *catalogService) CheckReadiness(ctx context.Context) error {
	if _, err := s.provider.GetCatalogData(ctx); err != nil {
		return fmt.Errorf("catalog not available: %w", err)
	}
	return nil
}
