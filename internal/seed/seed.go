// Package seed loads initial list items from a file or resolves them eagerly
// from a provider, so the first render pass is served from cache.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/virtual"
)

var (
	ErrNegativeIndex  = errors.New("seed: negative index")
	ErrDuplicateIndex = errors.New("seed: duplicate index")
)

// prefetchWorkers bounds concurrent provider calls in Prefetch.
const prefetchWorkers = 8

// Entry is one seeded item as written in a seed file.
type Entry struct {
	Index   int    `json:"index" yaml:"index"`
	Content string `json:"content" yaml:"content"`
	Style   string `json:"style,omitempty" yaml:"style,omitempty"`
}

// File is the seed file layout.
type File struct {
	Items []Entry `json:"items" yaml:"items"`
}

// Load reads a seed file. Files ending in .json are decoded as JSON; anything
// else as YAML.
func Load(path string) (map[int]virtual.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return f.Map()
}

// Map converts entries to the engine's initial item map.
func (f File) Map() (map[int]virtual.Item, error) {
	items := make(map[int]virtual.Item, len(f.Items))
	for _, e := range f.Items {
		if e.Index < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNegativeIndex, e.Index)
		}
		if _, ok := items[e.Index]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, e.Index)
		}
		items[e.Index] = virtual.Item{Content: e.Content, Style: e.Style}
	}
	return items, nil
}

// Save writes items as a YAML seed file, sorted by index.
func Save(path string, items map[int]virtual.Item) error {
	f := File{Items: make([]Entry, 0, len(items))}
	for index, item := range items {
		f.Items = append(f.Items, Entry{Index: index, Content: item.Content, Style: item.Style})
	}
	slices.SortFunc(f.Items, func(a, b Entry) int { return a.Index - b.Index })
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Prefetch resolves the first n items of p. Items that fail are left out;
// the first error is returned alongside whatever succeeded.
func Prefetch(ctx context.Context, p provider.Provider, n int) (map[int]virtual.Item, error) {
	count, err := p.Count(ctx)
	if err != nil {
		return nil, err
	}
	n = min(n, count)
	if n <= 0 {
		return map[int]virtual.Item{}, nil
	}

	var (
		mu       sync.Mutex
		items    = make(map[int]virtual.Item, n)
		firstErr error
		wg       sync.WaitGroup
	)
	indices := make(chan int)
	for range min(prefetchWorkers, n) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indices {
				item, err := p.Item(ctx, index)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("prefetch %d: %w", index, err)
					}
				} else {
					items[index] = item
				}
				mu.Unlock()
			}
		}()
	}
	for i := range n {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return items, firstErr
}

// Merge overlays extra onto base and returns base. Entries already in base win.
func Merge(base, extra map[int]virtual.Item) map[int]virtual.Item {
	if base == nil {
		base = make(map[int]virtual.Item, len(extra))
	}
	for index, item := range extra {
		if _, ok := base[index]; !ok {
			base[index] = item
		}
	}
	return base
}
