package virtual

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/wilbur182/vlist/internal/mouse"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/ui"
)

// ScrollHost is the scrollable surface an engine renders into.
type ScrollHost interface {
	ScrollOffset() int
	ViewportExtent() int
	// Subscribe registers fn to run on every scroll or resize and returns
	// a function that removes the subscription.
	Subscribe(fn func() tea.Cmd) (unsubscribe func())
}

// ContentSizer is implemented by hosts that need the total content height.
type ContentSizer interface {
	SetContentExtent(rows int)
}

// Fetcher resolves content for cache misses. It must eventually return;
// the engine enforces no timeout.
type Fetcher interface {
	FetchItem(ctx context.Context, providerID string, index int) (Item, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, providerID string, index int) (Item, error)

// FetchItem calls f.
func (f FetcherFunc) FetchItem(ctx context.Context, providerID string, index int) (Item, error) {
	return f(ctx, providerID, index)
}

// Interactor converts declarative markers in freshly applied content into
// live zones. It runs after every application, so it must rebuild the content
// from Raw rather than patch what an earlier application left.
type Interactor interface {
	Attach(c *Content) error
}

// InteractorFunc adapts a function to Interactor.
type InteractorFunc func(c *Content) error

// Attach calls f.
func (f InteractorFunc) Attach(c *Content) error { return f(c) }

// Config is the immutable shape of one list.
type Config struct {
	ItemCount    int
	ItemExtent   int          // rows per item
	InitialItems map[int]Item // pre-seeded cache
	ProviderID   string       // passed through to the fetcher
	ScrollHost   ScrollHost
}

// Options carries the engine's collaborators.
type Options struct {
	Fetcher       Fetcher
	Interactor    Interactor       // optional
	Styles        StyleDestination // optional
	SpareSlots    int              // parked slots kept for regrowth; negative means DefaultSpareSlots
	ShowScrollbar bool
	Animate       bool // shimmer loading placeholders
	Logger        *slog.Logger
	Context       context.Context // parent context for fetches
	ID            string          // list identity; generated when empty
}

// ItemLoadedMsg carries a fetch result back to the engine that issued it.
type ItemLoadedMsg struct {
	ListID string
	Index  int
	Seq    uint64
	Item   Item
	Err    error
}

// ZoneHit is the Data of hit regions registered by Regions.
type ZoneHit struct {
	ListID string
	Index  int
	Action string
}

// ZoneRegionID is the region ID used for content zones.
const ZoneRegionID = "list-zone"

// Stats counts engine activity since construction.
type Stats struct {
	Hits         int // rebinds served from cache
	Misses       int // rebinds that found no cache entry
	Fetches      int // fetches issued
	Deduped      int // misses that joined an in-flight fetch
	Failures     int // fetches that returned an error
	Stale        int // results that found no slot bound to their index
	AttachErrors int // interactor errors or panics
}

// Engine is a virtualized list over a ScrollHost.
type Engine struct {
	id     string
	cfg    Config
	host   ScrollHost
	logger *slog.Logger
	ctx    context.Context

	fetcher    Fetcher
	interactor Interactor
	sink       *StyleSink

	cache   *Cache
	pending *Pending
	pool    *Pool

	skeleton      ui.Skeleton
	showScrollbar bool
	animate       bool
	unsubscribe   func()
	destroyed     bool

	stats Stats
}

// New validates cfg and creates an engine. Initial items are cached and their
// style fragments applied at once. The first render pass runs in Init.
func New(cfg Config, opts Options) (*Engine, error) {
	if cfg.ScrollHost == nil {
		return nil, ErrNoScrollHost
	}
	if cfg.ItemExtent <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemExtent, cfg.ItemExtent)
	}
	if cfg.ItemCount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemCount, cfg.ItemCount)
	}
	if opts.Fetcher == nil {
		return nil, ErrNoFetcher
	}

	seeds := make([]int, 0, len(cfg.InitialItems))
	for index := range cfg.InitialItems {
		if index < 0 || index >= cfg.ItemCount {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrSeedOutOfRange, index, cfg.ItemCount)
		}
		seeds = append(seeds, index)
	}
	slices.Sort(seeds)

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	e := &Engine{
		id:            id,
		cfg:           cfg,
		host:          cfg.ScrollHost,
		logger:        logger.With("list", id),
		ctx:           ctx,
		fetcher:       opts.Fetcher,
		interactor:    opts.Interactor,
		sink:          NewStyleSink(opts.Styles),
		cache:         NewCache(),
		pending:       NewPending(),
		pool:          NewPool(opts.SpareSlots),
		skeleton:      ui.NewSkeleton(id, nil),
		showScrollbar: opts.ShowScrollbar,
		animate:       opts.Animate,
	}

	for _, index := range seeds {
		item := cfg.InitialItems[index]
		e.cache.Set(index, item)
		e.sink.Apply(item.Style)
	}

	if sizer, ok := e.host.(ContentSizer); ok {
		sizer.SetContentExtent(cfg.ItemCount * cfg.ItemExtent)
	}
	e.unsubscribe = e.host.Subscribe(e.Render)

	e.logger.Debug("list created",
		"items", cfg.ItemCount, "extent", cfg.ItemExtent,
		"seeded", len(seeds), "provider", cfg.ProviderID)
	return e, nil
}

// ID returns the list identity carried by its messages.
func (e *Engine) ID() string { return e.id }

// Init runs the first render pass.
func (e *Engine) Init() tea.Cmd {
	return e.Render()
}

// Render runs one tracking pass: compute the visible window, assign slots,
// and resolve content for every rebound slot. Fetches for misses are
// returned as commands; Render itself never waits on them.
func (e *Engine) Render() tea.Cmd {
	if e.destroyed {
		return nil
	}
	entries := VisibleRange(e.host.ScrollOffset(), e.host.ViewportExtent(), e.cfg.ItemExtent, e.cfg.ItemCount)

	var cmds []tea.Cmd
	for _, s := range e.pool.Assign(entries) {
		if cmd := e.resolve(s); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if e.animate && e.anyLoading() {
		cmds = append(cmds, e.skeleton.Start())
	}
	return tea.Batch(cmds...)
}

// anyLoading reports whether an on-screen slot shows the placeholder.
func (e *Engine) anyLoading() bool {
	for _, s := range e.pool.slots {
		if s.onscreen && s.state == SlotLoading {
			return true
		}
	}
	return false
}

// resolve fills a freshly bound slot from cache, or starts a fetch. A miss
// with a fetch already in flight only shows the placeholder; that fetch's
// completion fills the slot.
func (e *Engine) resolve(s *Slot) tea.Cmd {
	index := s.Index()
	if item, ok := e.cache.Get(index); ok {
		e.stats.Hits++
		s.apply(item)
		e.attach(s)
		return nil
	}

	e.stats.Misses++
	s.showLoading()

	seq, ok := e.pending.Begin(index)
	if !ok {
		e.stats.Deduped++
		return nil
	}
	e.stats.Fetches++
	e.logger.Debug("fetch issued", "index", index, "seq", seq)
	return e.fetchCmd(index, seq)
}

func (e *Engine) fetchCmd(index int, seq uint64) tea.Cmd {
	id, ctx, fetcher, providerID := e.id, e.ctx, e.fetcher, e.cfg.ProviderID
	return func() tea.Msg {
		item, err := safeFetch(ctx, fetcher, providerID, index)
		return ItemLoadedMsg{ListID: id, Index: index, Seq: seq, Item: item, Err: err}
	}
}

func safeFetch(ctx context.Context, f Fetcher, providerID string, index int) (item Item, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrFetchPanic, rec)
		}
	}()
	return f.FetchItem(ctx, providerID, index)
}

// Update applies messages addressed to this engine: fetch results and
// placeholder animation ticks. Other messages are ignored.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ItemLoadedMsg:
		if msg.ListID == e.id {
			e.complete(msg)
		}
	case ui.SkeletonTickMsg:
		if msg.Owner != e.id {
			return nil
		}
		// Let the animation lapse once nothing is loading; Render restarts it.
		if !e.anyLoading() {
			e.skeleton.Stop()
			return nil
		}
		return e.skeleton.Update(msg)
	}
	return nil
}

// complete is the single place a fetch result touches engine state.
func (e *Engine) complete(msg ItemLoadedMsg) {
	if e.destroyed {
		return
	}
	index := msg.Index
	elapsed, _ := e.pending.Done(index)

	if msg.Err != nil {
		e.stats.Failures++
		e.logger.Warn("fetch failed", "index", index, "seq", msg.Seq, "elapsed", elapsed, "err", msg.Err)
		if s := e.pool.Find(index); s != nil {
			s.showError(msg.Err)
		}
		return
	}

	e.cache.Set(index, msg.Item)
	e.sink.Apply(msg.Item.Style)

	s := e.pool.Find(index)
	if s == nil {
		e.stats.Stale++
		e.logger.Debug("fetch result cached, slot moved on", "index", index, "seq", msg.Seq, "elapsed", elapsed)
		return
	}
	e.logger.Debug("fetch applied", "index", index, "seq", msg.Seq, "elapsed", elapsed, "slot", s.ID())
	s.apply(msg.Item)
	e.attach(s)
}

// attach runs the interactor on a slot's fresh content. Failures leave the
// raw lines in place and never propagate.
func (e *Engine) attach(s *Slot) {
	if e.interactor == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			e.stats.AttachErrors++
			e.logger.Warn("attach panicked", "index", s.Index(), "panic", rec)
			s.content.reset(s.content.Raw)
		}
	}()
	if err := e.interactor.Attach(s.Content()); err != nil {
		e.stats.AttachErrors++
		e.logger.Warn("attach failed", "index", s.Index(), "err", err)
		s.content.reset(s.content.Raw)
	}
}

// RefreshAll drops every cached item and re-resolves the whole window.
// In-flight fetches are left alone and still populate the cache.
func (e *Engine) RefreshAll() tea.Cmd {
	if e.destroyed {
		return nil
	}
	e.cache.Clear()
	e.pool.UnbindAll()
	e.logger.Debug("refresh all")
	return e.Render()
}

// RefreshSome drops the listed items from the cache and re-resolves those
// that are visible. Hidden ones are fetched again when next shown.
func (e *Engine) RefreshSome(indices []int) tea.Cmd {
	if e.destroyed {
		return nil
	}
	for _, index := range indices {
		if index < 0 || index >= e.cfg.ItemCount {
			continue
		}
		e.cache.Delete(index)
		e.pool.Unbind(index)
	}
	e.logger.Debug("refresh some", "indices", indices)
	return e.Render()
}

// Destroy unsubscribes from the host, stops the placeholder animation and
// releases all slots and cached content. Fetches still in flight complete
// into nothing. Destroy is idempotent.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
	e.skeleton.Stop()
	e.pool.Release()
	e.cache.Clear()
	e.logger.Debug("list destroyed", "pending", e.pending.Len())
}

// Destroyed reports whether Destroy has been called.
func (e *Engine) Destroyed() bool { return e.destroyed }

// Err returns ErrDestroyed after Destroy, nil otherwise.
func (e *Engine) Err() error {
	if e.destroyed {
		return ErrDestroyed
	}
	return nil
}

// ItemCount returns the configured item count.
func (e *Engine) ItemCount() int { return e.cfg.ItemCount }

// ItemExtent returns the configured rows per item.
func (e *Engine) ItemExtent() int { return e.cfg.ItemExtent }

// ProviderID returns the configured provider identifier.
func (e *Engine) ProviderID() string { return e.cfg.ProviderID }

// Visible returns the indices of on-screen slots in window order.
func (e *Engine) Visible() []int {
	var out []int
	for _, s := range e.pool.slots {
		if s.onscreen && s.index != Unbound {
			out = append(out, s.index)
		}
	}
	return out
}

// Slot returns the slot bound to index, or nil.
func (e *Engine) Slot(index int) *Slot { return e.pool.Find(index) }

// Cached returns the cached item for index.
func (e *Engine) Cached(index int) (Item, bool) { return e.cache.Get(index) }

// IsPending reports whether a fetch for index is in flight.
func (e *Engine) IsPending(index int) bool { return e.pending.Has(index) }

// CachedCount returns the number of cached items.
func (e *Engine) CachedCount() int { return e.cache.Len() }

// PendingCount returns the number of in-flight fetches.
func (e *Engine) PendingCount() int { return e.pending.Len() }

// SlotCount returns the number of slots in the pool.
func (e *Engine) SlotCount() int { return e.pool.Len() }

// SlotHighWater returns the most slots the pool has held at once.
func (e *Engine) SlotHighWater() int { return e.pool.HighWater() }

// StyleCount returns the number of distinct style fragments applied.
func (e *Engine) StyleCount() int { return e.sink.Len() }

// Stats returns activity counters.
func (e *Engine) Stats() Stats { return e.stats }

// View draws the viewport: every on-screen slot at its row offset, clipped
// to the viewport, plus the scrollbar column when enabled.
func (e *Engine) View(width int) string {
	extent := e.host.ViewportExtent()
	if e.destroyed || extent <= 0 || width <= 0 {
		return ""
	}
	offset := e.host.ScrollOffset()
	contentWidth := e.contentWidth(width)

	rows := make([]string, extent)
	for _, s := range e.pool.slots {
		if !s.onscreen {
			continue
		}
		for r, line := range e.slotLines(s, contentWidth) {
			if y := s.top + r - offset; y >= 0 && y < extent {
				rows[y] = line
			}
		}
	}

	var bar []string
	if contentWidth < width {
		bar = ui.ScrollbarColumn(ui.ScrollbarParams{
			ContentRows:  e.cfg.ItemCount * e.cfg.ItemExtent,
			Offset:       offset,
			ViewportRows: extent,
			TrackHeight:  extent,
		})
	}

	var sb strings.Builder
	for y, row := range rows {
		if y > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(fitWidth(row, contentWidth))
		if bar != nil {
			sb.WriteString(bar[y])
		}
	}
	return sb.String()
}

// contentWidth is the width left for item lines once the scrollbar column
// is taken.
func (e *Engine) contentWidth(width int) int {
	if e.showScrollbar && width > 1 {
		return width - 1
	}
	return width
}

// slotLines returns exactly ItemExtent display lines for a slot.
func (e *Engine) slotLines(s *Slot, width int) []string {
	n := e.cfg.ItemExtent
	var lines []string
	switch s.state {
	case SlotLoading:
		lines = e.skeleton.Lines(n, width, s.index)
	case SlotFailed:
		msg := fmt.Sprintf("✗ item %d failed: %v", s.index, s.err)
		lines = []string{styles.ItemError.Render(ansi.Truncate(msg, width, "…"))}
	case SlotReady:
		lines = s.content.Lines
	}
	out := make([]string, n)
	copy(out, lines)
	return out
}

// fitWidth truncates or pads line to exactly width cells.
func fitWidth(line string, width int) string {
	w := ansi.StringWidth(line)
	if w > width {
		return ansi.Truncate(line, width, "")
	}
	return line + strings.Repeat(" ", width-w)
}

// Regions registers a hit region for every visible zone. (x, y) is the
// screen position of the viewport's top-left cell and width is the width
// passed to View; zones are clipped to the drawn content.
func (e *Engine) Regions(hm *mouse.HitMap, x, y, width int) {
	extent := e.host.ViewportExtent()
	if e.destroyed || hm == nil || extent <= 0 || width <= 0 {
		return
	}
	offset := e.host.ScrollOffset()
	contentWidth := e.contentWidth(width)
	for _, s := range e.pool.slots {
		if !s.onscreen || s.state != SlotReady {
			continue
		}
		for _, z := range s.content.Zones {
			end := min(z.End, contentWidth)
			if z.Line >= e.cfg.ItemExtent || end <= z.Start {
				continue
			}
			row := s.top + z.Line - offset
			if row < 0 || row >= extent {
				continue
			}
			hm.AddRect(ZoneRegionID, x+z.Start, y+row, end-z.Start, 1, ZoneHit{
				ListID: e.id,
				Index:  s.index,
				Action: z.Action,
			})
		}
	}
}
