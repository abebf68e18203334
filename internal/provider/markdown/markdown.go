// Package markdown serves every *.md file in a directory as one list item,
// rendered through glamour.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wilbur182/vlist/internal/interact"
	mdrender "github.com/wilbur182/vlist/internal/markdown"
	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Kind is the provider kind registered by this package.
const Kind = "markdown"

// DefaultWidth is the render width when the source sets none.
const DefaultWidth = 80

// TitleStyle is the style fragment shared by every document title line.
const TitleStyle = ".md-title { fg: #7AA2F7; bold }"

func init() {
	provider.RegisterFactory(Kind, func(src provider.Source) (provider.Provider, error) {
		return Open(src.ID, src.Path, src.Width)
	})
}

// Provider lists the markdown documents of a directory.
type Provider struct {
	id       string
	dir      string
	width    int
	renderer *mdrender.Renderer

	mu    sync.Mutex
	files []string
}

// Open scans dir for *.md files.
func Open(id, dir string, width int) (*Provider, error) {
	if dir == "" {
		return nil, provider.ErrSourceRequired
	}
	if width <= 0 {
		width = DefaultWidth
	}
	p := &Provider{
		id:       id,
		dir:      dir,
		width:    width,
		renderer: mdrender.NewRenderer(styles.GetMarkdownTheme(), nil),
	}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the directory listing.
func (p *Provider) Reload() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	p.mu.Lock()
	p.files = files
	p.mu.Unlock()
	return nil
}

// ID returns the provider ID.
func (p *Provider) ID() string { return p.id }

// Count returns the number of documents found by the last scan.
func (p *Provider) Count(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files), nil
}

// Item renders the document at index. The first line is the file name with
// an open action; the rendered document follows.
func (p *Provider) Item(ctx context.Context, index int) (virtual.Item, error) {
	p.mu.Lock()
	if err := provider.CheckIndex(index, len(p.files)); err != nil {
		p.mu.Unlock()
		return virtual.Item{}, err
	}
	name := p.files[index]
	p.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return virtual.Item{}, fmt.Errorf("read %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return virtual.Item{}, err
	}

	lines := p.renderer.Render(string(data), p.width)
	var sb strings.Builder
	fmt.Fprintf(&sb, "[[.md-title|%s]]  [[click:open|open]]", interact.EscapeText(name))
	for _, line := range lines {
		sb.WriteByte('\n')
		sb.WriteString(interact.Escape(line))
	}
	return virtual.Item{Content: sb.String(), Style: TitleStyle}, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
