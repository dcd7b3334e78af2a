package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/streamlit-community/component-directory/internal/catalog"
)

// FileCatalogDataProvider serves the compiled catalog from a file on disk.
// The parsed catalog is cached and re-read only when the file's modification
// time changes, so a pipeline run updating the artifact is picked up without
// restarting the server.
type FileCatalogDataProvider struct {
	path string

	mu      sync.Mutex
	cached  *catalog.Catalog
	modTime time.Time
}

// NewFileCatalogDataProvider creates a file-backed catalog provider.
func NewFileCatalogDataProvider(path string) *FileCatalogDataProvider {
	return &FileCatalogDataProvider{path: path}
}

// GetCatalogData implements CatalogDataProvider.
func (p *FileCatalogDataProvider) GetCatalogData(_ context.Context) (*catalog.Catalog, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog file: %w", err)
	}

	if p.cached != nil && info.ModTime().Equal(p.modTime) {
		return p.cached, nil
	}

	c, err := catalog.Load(p.path)
	if err != nil {
		return nil, err
	}
	p.cached = c
	p.modTime = info.ModTime()
	return c, nil
}

// GetSource implements CatalogDataProvider.
func (p *FileCatalogDataProvider) GetSource() string {
	return fmt.Sprintf("file:%s", p.path)
}
