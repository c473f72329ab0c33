package site

import (
	"context"
	"fmt"
	"sort"

	"ElectionWatcher/internal/domain"
)

// Target describes one configured source site.
type Target struct {
	Name      string
	Label     string
	SourceURL string
	BaseURL   string
}

// Adapter captures how a single source site lists and parses its results.
type Adapter interface {
	Name() string
	// ListRegions returns the regions currently published, in page order.
	ListRegions(ctx context.Context, target Target) ([]domain.Region, error)
	// Extract parses one region's results; field problems become warnings.
	Extract(ctx context.Context, target Target, region domain.Region) (domain.Extraction, error)
}

// Registry keeps a mapping from adapter names to their implementations.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds or replaces an adapter implementation.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[string]Adapter{}
	}
	r.adapters[adapter.Name()] = adapter
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Adapter, error) {
	if adapter, ok := r.adapters[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("site adapter %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered adapters in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
