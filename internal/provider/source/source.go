// Package source serves the lines of a source file as list items, syntax
// highlighted with chroma.
package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/wilbur182/vlist/internal/interact"
	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Kind is the provider kind registered by this package.
const Kind = "source"

// GutterStyle styles the line-number column of every item.
const GutterStyle = ".src-gutter { faint }"

func init() {
	provider.RegisterFactory(Kind, func(src provider.Source) (provider.Provider, error) {
		return Open(src.ID, src.Path)
	})
}

// Provider holds the lines of one file.
type Provider struct {
	id   string
	path string
	hl   *Highlighter

	mu    sync.RWMutex
	lines []string
}

// Open reads path and selects a highlighter from its name.
func Open(id, path string) (*Provider, error) {
	if path == "" {
		return nil, provider.ErrSourceRequired
	}
	p := &Provider{
		id:   id,
		path: path,
		hl:   NewHighlighter(path, styles.GetSyntaxTheme()),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the file.
func (p *Provider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.path, err)
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.lines = lines
	p.mu.Unlock()
	return nil
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.id }

// Count returns the number of lines.
func (p *Provider) Count(context.Context) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.lines), nil
}

// Item returns line index+1 with a line-number gutter.
func (p *Provider) Item(_ context.Context, index int) (virtual.Item, error) {
	p.mu.RLock()
	if err := provider.CheckIndex(index, len(p.lines)); err != nil {
		p.mu.RUnlock()
		return virtual.Item{}, err
	}
	line := p.lines[index]
	p.mu.RUnlock()

	content := fmt.Sprintf("[[.src-gutter|%5d]] %s", index+1, interact.Escape(p.hl.Line(line)))
	return virtual.Item{Content: content, Style: GutterStyle}, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
