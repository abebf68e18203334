// Package provider supplies list content from concrete backends and routes
// engine fetches to them by provider ID.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wilbur182/vlist/internal/virtual"
)

var (
	ErrUnknownProvider = errors.New("provider: unknown provider")
	ErrUnknownKind     = errors.New("provider: unknown kind")
	ErrDuplicateID     = errors.New("provider: duplicate provider id")
	ErrIndexOutOfRange = errors.New("provider: index out of range")
	ErrSourceRequired  = errors.New("provider: source path required")
	ErrProviderClosed  = errors.New("provider: closed")
)

// Provider resolves items of one list by index.
type Provider interface {
	ID() string
	Count(ctx context.Context) (int, error)
	Item(ctx context.Context, index int) (virtual.Item, error)
	Close() error
}

// Reloader is implemented by providers that can re-read their backing data.
type Reloader interface {
	Reload() error
}

// Source describes a provider to open.
type Source struct {
	Kind      string
	ID        string
	Path      string
	Latency   time.Duration // synthetic only
	FailEvery int           // synthetic only
	Width     int           // render width for formatted content
	Lines     int           // rows per item, synthetic only
}

// Factory opens a provider for a source.
type Factory func(Source) (Provider, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a provider constructor for kind. Backends call it
// from init.
func RegisterFactory(kind string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered provider kinds in sorted order.
func Kinds() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open creates a provider with the factory registered for src.Kind. An empty
// src.ID defaults to the kind.
func Open(src Source) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[src.Kind]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownKind, src.Kind, Kinds())
	}
	if src.ID == "" {
		src.ID = src.Kind
	}
	p, err := f(src)
	if err != nil {
		return nil, fmt.Errorf("open %s provider: %w", src.Kind, err)
	}
	return p, nil
}

// CheckIndex returns ErrIndexOutOfRange unless 0 <= index < count.
func CheckIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, count)
	}
	return nil
}

// Registry routes fetches to providers by ID. Fetches run on command
// goroutines, so the registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Add registers p under its ID.
func (r *Registry) Add(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.ID()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID())
	}
	r.providers[p.ID()] = p
	return nil
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// FetchItem implements virtual.Fetcher.
func (r *Registry) FetchItem(ctx context.Context, providerID string, index int) (virtual.Item, error) {
	p, ok := r.Get(providerID)
	if !ok {
		return virtual.Item{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}
	if index < 0 {
		return virtual.Item{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if err := ctx.Err(); err != nil {
		return virtual.Item{}, err
	}
	return p.Item(ctx, index)
}

// Close closes every provider and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for id, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	clear(r.providers)
	return errors.Join(errs...)
}
