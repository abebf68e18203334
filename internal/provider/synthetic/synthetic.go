// Package synthetic generates list items on demand, with optional latency
// and injected failures. It backs the demo list and manual testing.
package synthetic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Kind is the provider kind registered by this package.
const Kind = "synthetic"

// DefaultCount is the item count when the source path names none.
const DefaultCount = 10_000

// ErrInjected is the failure returned for indices selected by FailEvery.
var ErrInjected = errors.New("synthetic: injected failure")

// Style fragments shared by generated rows.
const (
	EvenStyle = ".syn-even { fg: #9ECE6A }"
	OddStyle  = ".syn-odd { fg: #E0AF68 }"
)

func init() {
	provider.RegisterFactory(Kind, func(src provider.Source) (provider.Provider, error) {
		count := DefaultCount
		if src.Path != "" {
			n, err := ParseCount(src.Path)
			if err != nil {
				return nil, err
			}
			count = n
		}
		return New(Options{
			ID:        src.ID,
			Count:     count,
			Latency:   src.Latency,
			FailEvery: src.FailEvery,
			Lines:     src.Lines,
		}), nil
	})
}

// ParseCount parses an item count such as "5000", "1,000,000" or "10k".
func ParseCount(s string) (int, error) {
	v, unit, err := humanize.ParseSI(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil || unit != "" || v < 0 || v != float64(int(v)) {
		return 0, fmt.Errorf("synthetic: bad count %q", s)
	}
	return int(v), nil
}

// Options configures a generator.
type Options struct {
	ID        string
	Count     int
	Latency   time.Duration // per fetch
	FailEvery int           // every n-th item fails its first fetch; 0 disables
	Lines     int           // rows per item, at least 1
}

// Provider generates rows.
type Provider struct {
	opts Options

	mu       sync.Mutex
	attempts map[int]int
}

// New creates a generator.
func New(opts Options) *Provider {
	if opts.Lines < 1 {
		opts.Lines = 1
	}
	return &Provider{opts: opts, attempts: make(map[int]int)}
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.opts.ID }

// Count returns the configured count.
func (p *Provider) Count(context.Context) (int, error) { return p.opts.Count, nil }

// Attempts returns how many times index has been fetched.
func (p *Provider) Attempts(index int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempts[index]
}

// Item waits out the configured latency and returns the generated row.
func (p *Provider) Item(ctx context.Context, index int) (virtual.Item, error) {
	if err := provider.CheckIndex(index, p.opts.Count); err != nil {
		return virtual.Item{}, err
	}

	p.mu.Lock()
	p.attempts[index]++
	attempt := p.attempts[index]
	p.mu.Unlock()

	if p.opts.Latency > 0 {
		timer := time.NewTimer(p.opts.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return virtual.Item{}, ctx.Err()
		case <-timer.C:
		}
	}

	if n := p.opts.FailEvery; n > 0 && (index+1)%n == 0 && attempt == 1 {
		return virtual.Item{}, fmt.Errorf("%w: item %d", ErrInjected, index)
	}
	return Row(index, p.opts.Lines), nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }

// Row builds the item for index.
func Row(index, lines int) virtual.Item {
	class, style := "syn-even", EvenStyle
	if index%2 == 1 {
		class, style = "syn-odd", OddStyle
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[[.%s|Row %s]]  [[click:copy|copy]] [[click:refresh|refresh]]",
		class, humanize.Comma(int64(index)))
	for l := 1; l < lines; l++ {
		fmt.Fprintf(&sb, "\n  detail %d of row %d", l, index)
	}
	return virtual.Item{Content: sb.String(), Style: style}
}
