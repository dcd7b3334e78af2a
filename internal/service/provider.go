package service

import (
	"context"

	"github.com/streamlit-community/component-directory/internal/catalog"
)

// CatalogDataProvider abstracts where the compiled catalog comes from.
type CatalogDataProvider interface {
	// GetCatalogData returns the current compiled catalog.
	GetCatalogData(ctx context.Context) (*catalog.Catalog, error)

	// GetSource returns a descriptive label for the catalog source.
	GetSource() string
}
