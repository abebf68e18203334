// Package markdown renders markdown documents to terminal lines.
package markdown

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
)

const (
	// MinWidth is the narrowest width glamour is used for. Below it documents
	// fall back to plain word wrapping.
	MinWidth = 30

	// MaxCacheEntries bounds the render cache; the cache is dropped when full.
	MaxCacheEntries = 256
)

// Renderer wraps glamour with a render cache keyed by content and width.
// It is safe for concurrent use; fetch commands render in parallel.
type Renderer struct {
	stylePath string
	logger    *slog.Logger

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	cache     map[uint64][]string
}

// NewRenderer creates a renderer using a glamour style name or path such as
// "dark" or "light".
func NewRenderer(stylePath string, logger *slog.Logger) *Renderer {
	if stylePath == "" {
		stylePath = "dark"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{
		stylePath: stylePath,
		logger:    logger,
		renderers: make(map[int]*glamour.TermRenderer),
		cache:     make(map[uint64][]string),
	}
}

// Render renders content to lines no wider than width.
func (r *Renderer) Render(content string, width int) []string {
	if content == "" {
		return nil
	}
	if width < MinWidth {
		return WrapText(content, width)
	}

	key := cacheKey(content, width)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[key]; ok {
		return cached
	}

	tr, err := r.rendererFor(width)
	if err != nil {
		r.logger.Warn("glamour renderer", "width", width, "err", err)
		return WrapText(content, width)
	}
	rendered, err := tr.Render(content)
	if err != nil {
		r.logger.Warn("glamour render", "err", err)
		return WrapText(content, width)
	}

	lines := strings.Split(strings.TrimRight(rendered, "\n\r\t "), "\n")
	if len(r.cache) >= MaxCacheEntries {
		r.cache = make(map[uint64][]string)
	}
	r.cache[key] = lines
	return lines
}

// CacheLen returns the number of cached renders.
func (r *Renderer) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}

// rendererFor returns the glamour renderer for width. Caller holds mu.
func (r *Renderer) rendererFor(width int) (*glamour.TermRenderer, error) {
	if tr, ok := r.renderers[width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(r.stylePath),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderers[width] = tr
	return tr, nil
}

func cacheKey(content string, width int) uint64 {
	h := xxhash.New()
	h.WriteString(content)
	h.Write([]byte{byte(width >> 8), byte(width)})
	return h.Sum64()
}

// WrapText word-wraps text to maxWidth cells, joining its lines first.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	currentW := runewidth.StringWidth(current)
	for _, word := range words[1:] {
		w := runewidth.StringWidth(word)
		if currentW+1+w <= maxWidth {
			current += " " + word
			currentW += 1 + w
			continue
		}
		lines = append(lines, current)
		current, currentW = word, w
	}
	return append(lines, current)
}
