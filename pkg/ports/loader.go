package ports

import (
	"context"

	"github.com/aretw0/triage/pkg/catalog"
)

// CatalogLoader defines how the engine retrieves its question catalog.
// This allows the source (embedded default, YAML file, Loam repository) to be decoupled.
type CatalogLoader interface {
	Load(ctx context.Context) (*catalog.Catalog, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying catalog changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
