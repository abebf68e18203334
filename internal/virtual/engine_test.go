package virtual

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"

	"github.com/wilbur182/vlist/internal/mouse"
	"github.com/wilbur182/vlist/internal/ui"
)

var errBoom = errors.New("boom")

// fakeFetcher serves "item N" and counts calls per index.
type fakeFetcher struct {
	calls   map[int]int
	fail    map[int]int // remaining failures per index
	style   string
	explode bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(map[int]int), fail: make(map[int]int)}
}

func (f *fakeFetcher) FetchItem(_ context.Context, _ string, index int) (Item, error) {
	f.calls[index]++
	if f.explode {
		panic("fetcher exploded")
	}
	if f.fail[index] > 0 {
		f.fail[index]--
		return Item{}, errBoom
	}
	return Item{Content: fmt.Sprintf("item %d", index), Style: f.style}, nil
}

// collect runs cmd and every command nested in batches, returning the
// resulting messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// run executes cmd and feeds its messages back into e.
func run(e *Engine, cmd tea.Cmd) {
	for _, msg := range collect(cmd) {
		e.Update(msg)
	}
}

type harness struct {
	engine  *Engine
	vp      *ui.Viewport
	fetcher *fakeFetcher
}

func newHarness(t *testing.T, cfg Config, opts Options, viewportRows int) *harness {
	t.Helper()
	vp := ui.NewViewport(viewportRows)
	f := newFakeFetcher()
	cfg.ScrollHost = vp
	if opts.Fetcher == nil {
		opts.Fetcher = f
	}
	e, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{engine: e, vp: vp, fetcher: f}
}

func TestNew_Validation(t *testing.T) {
	vp := ui.NewViewport(10)
	fetcher := newFakeFetcher()

	tests := []struct {
		name string
		cfg  Config
		opts Options
		want error
	}{
		{"no host", Config{ItemCount: 1, ItemExtent: 1}, Options{Fetcher: fetcher}, ErrNoScrollHost},
		{"zero extent", Config{ItemCount: 1, ScrollHost: vp}, Options{Fetcher: fetcher}, ErrInvalidItemExtent},
		{"negative count", Config{ItemCount: -1, ItemExtent: 1, ScrollHost: vp}, Options{Fetcher: fetcher}, ErrInvalidItemCount},
		{"no fetcher", Config{ItemCount: 1, ItemExtent: 1, ScrollHost: vp}, Options{}, ErrNoFetcher},
		{
			"seed out of range",
			Config{ItemCount: 2, ItemExtent: 1, ScrollHost: vp, InitialItems: map[int]Item{2: {Content: "x"}}},
			Options{Fetcher: fetcher},
			ErrSeedOutOfRange,
		},
	}
	for _, tt := range tests {
		_, err := New(tt.cfg, tt.opts)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
	if vp.Subscribers() != 0 {
		t.Errorf("failed constructions left %d subscribers", vp.Subscribers())
	}
}

func TestEngine_SizesHost(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 1000, ItemExtent: 40}, Options{}, 120)
	if got := h.vp.ContentExtent(); got != 40_000 {
		t.Errorf("content extent = %d, want 40000", got)
	}
	if h.vp.Subscribers() != 1 {
		t.Errorf("subscribers = %d, want 1", h.vp.Subscribers())
	}
}

func TestEngine_SeededItemsNeedNoFetch(t *testing.T) {
	seeds := map[int]Item{}
	for i := range 4 {
		seeds[i] = Item{Content: fmt.Sprintf("seed %d", i)}
	}
	h := newHarness(t, Config{ItemCount: 1000, ItemExtent: 40, InitialItems: seeds}, Options{}, 120)

	if msgs := collect(h.engine.Init()); len(msgs) != 0 {
		t.Error("fully seeded window should issue no commands")
	}
	if len(h.fetcher.calls) != 0 {
		t.Errorf("fetcher called %v", h.fetcher.calls)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, h.engine.Visible()); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
	for i := range 4 {
		s := h.engine.Slot(i)
		if s == nil || s.State() != SlotReady || s.Content().Raw != fmt.Sprintf("seed %d", i) {
			t.Errorf("slot for %d = %+v", i, s)
		}
	}
	if st := h.engine.Stats(); st.Hits != 4 || st.Fetches != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEngine_MissFetchesThenApplies(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 1000, ItemExtent: 40}, Options{}, 120)

	cmd := h.engine.Init()
	for i := range 4 {
		if s := h.engine.Slot(i); s == nil || s.State() != SlotLoading {
			t.Fatalf("slot %d should be loading before results arrive", i)
		}
		if !h.engine.IsPending(i) {
			t.Errorf("index %d should be pending", i)
		}
	}

	run(h.engine, cmd)

	for i := range 4 {
		s := h.engine.Slot(i)
		if s.State() != SlotReady || s.Content().Raw != fmt.Sprintf("item %d", i) {
			t.Errorf("slot %d: state %v raw %q", i, s.State(), s.Content().Raw)
		}
		if _, ok := h.engine.Cached(i); !ok {
			t.Errorf("index %d not cached", i)
		}
		if h.fetcher.calls[i] != 1 {
			t.Errorf("index %d fetched %d times", i, h.fetcher.calls[i])
		}
	}
	if h.engine.PendingCount() != 0 {
		t.Errorf("pending = %d after completion", h.engine.PendingCount())
	}
}

func TestEngine_ScrollingBackJoinsInflightFetch(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 100, ItemExtent: 10}, Options{}, 10)

	first := h.engine.Init() // fetches 0, 1
	second := h.vp.ScrollTo(20)
	if back := collect(h.vp.ScrollTo(0)); len(back) != 0 {
		t.Fatal("rebinding to in-flight indices must not issue fetches")
	}
	for _, i := range []int{0, 1} {
		if s := h.engine.Slot(i); s == nil || s.State() != SlotLoading {
			t.Fatalf("slot for %d should show the placeholder", i)
		}
	}

	run(h.engine, first)
	run(h.engine, second)

	for _, i := range []int{0, 1} {
		if h.fetcher.calls[i] != 1 {
			t.Errorf("index %d fetched %d times, want 1", i, h.fetcher.calls[i])
		}
		if s := h.engine.Slot(i); s.State() != SlotReady {
			t.Errorf("slot for %d state = %v", i, s.State())
		}
	}
	st := h.engine.Stats()
	if st.Deduped != 2 || st.Fetches != 4 || st.Stale != 2 {
		t.Errorf("stats = %+v, want 2 deduped, 4 fetches, 2 stale", st)
	}
}

func TestEngine_StaleResultCachedNotApplied(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 100, ItemExtent: 10}, Options{}, 10)

	early := h.engine.Init() // 0, 1
	late := h.vp.ScrollTo(20)

	run(h.engine, early)

	for _, i := range []int{2, 3} {
		s := h.engine.Slot(i)
		if s == nil || s.State() != SlotLoading {
			t.Fatalf("slot for %d should still be loading", i)
		}
	}
	for _, i := range []int{0, 1} {
		if h.engine.Slot(i) != nil {
			t.Errorf("no slot should be bound to %d", i)
		}
		if _, ok := h.engine.Cached(i); !ok {
			t.Errorf("stale result for %d should still be cached", i)
		}
	}

	run(h.engine, late)
	for _, i := range []int{2, 3} {
		if got := h.engine.Slot(i).Content().Raw; got != fmt.Sprintf("item %d", i) {
			t.Errorf("slot %d raw = %q", i, got)
		}
	}

	// Returning to the top is served from cache.
	if msgs := collect(h.vp.ScrollTo(0)); len(msgs) != 0 {
		t.Error("cached window should issue no fetches")
	}
}

func TestEngine_FailureShowsPlaceholderAndRetries(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 3, ItemExtent: 1}, Options{}, 3)
	h.fetcher.fail[1] = 1

	run(h.engine, h.engine.Init())

	s := h.engine.Slot(1)
	if s == nil || s.State() != SlotFailed || !errors.Is(s.Err(), errBoom) {
		t.Fatalf("slot 1 = %+v, want failed with errBoom", s)
	}
	if _, ok := h.engine.Cached(1); ok {
		t.Error("failure must not be cached")
	}
	if h.engine.IsPending(1) {
		t.Error("failure must clear the pending record")
	}
	view := ansi.Strip(h.engine.View(40))
	if !strings.Contains(view, "item 1 failed") {
		t.Errorf("view lacks error placeholder:\n%s", view)
	}

	run(h.engine, h.engine.RefreshAll())
	if h.fetcher.calls[1] != 2 {
		t.Errorf("index 1 fetched %d times, want 2", h.fetcher.calls[1])
	}
	if s := h.engine.Slot(1); s.State() != SlotReady {
		t.Errorf("after refresh slot 1 = %v", s.State())
	}
}

func TestEngine_FetchPanicBecomesFailure(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 1, ItemExtent: 1}, Options{}, 1)
	h.fetcher.explode = true

	run(h.engine, h.engine.Init())

	s := h.engine.Slot(0)
	if s == nil || s.State() != SlotFailed || !errors.Is(s.Err(), ErrFetchPanic) {
		t.Fatalf("slot 0 = %+v, want failed with ErrFetchPanic", s)
	}
}

func TestEngine_RefreshAllRefetchesVisible(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 100, ItemExtent: 1}, Options{}, 3)
	run(h.engine, h.engine.Init())
	run(h.engine, h.vp.ScrollTo(50))
	run(h.engine, h.vp.ScrollTo(0))

	run(h.engine, h.engine.RefreshAll())

	for i := range 4 {
		if h.fetcher.calls[i] != 2 {
			t.Errorf("index %d fetched %d times, want 2", i, h.fetcher.calls[i])
		}
	}
	if h.fetcher.calls[50] != 1 {
		t.Errorf("hidden index 50 fetched %d times, want 1", h.fetcher.calls[50])
	}
	if h.engine.CachedCount() != 4 {
		t.Errorf("cached = %d, want only the refetched window", h.engine.CachedCount())
	}
}

func TestEngine_RefreshSome(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 100, ItemExtent: 1}, Options{}, 3)
	run(h.engine, h.engine.Init())
	run(h.engine, h.vp.ScrollTo(50))
	run(h.engine, h.vp.ScrollTo(0))

	run(h.engine, h.engine.RefreshSome([]int{1, 50, -5, 1000}))

	want := map[int]int{0: 1, 1: 2, 2: 1, 3: 1}
	for i, n := range want {
		if h.fetcher.calls[i] != n {
			t.Errorf("index %d fetched %d times, want %d", i, h.fetcher.calls[i], n)
		}
	}
	if _, ok := h.engine.Cached(50); ok {
		t.Error("hidden refreshed index 50 should be dropped from cache")
	}
	if h.fetcher.calls[50] != 1 {
		t.Error("hidden index must not be refetched until shown")
	}
	for i := range 4 {
		if s := h.engine.Slot(i); s.State() != SlotReady {
			t.Errorf("slot %d = %v", i, s.State())
		}
	}
}

func TestEngine_RefreshDuringFetchStillCaches(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 3, ItemExtent: 1}, Options{}, 3)

	first := h.engine.Init()
	if msgs := collect(h.engine.RefreshSome([]int{0})); len(msgs) != 0 {
		t.Fatalf("refresh issued %d fetches for an in-flight index", len(msgs))
	}
	if s := h.engine.Slot(0); s == nil || s.State() != SlotLoading {
		t.Fatalf("slot 0 should keep the placeholder, got %+v", s)
	}

	run(h.engine, first)

	if s := h.engine.Slot(0); s.State() != SlotReady || s.Content().Raw != "item 0" {
		t.Errorf("slot 0: state %v raw %q", s.State(), s.Content().Raw)
	}
	if _, ok := h.engine.Cached(0); !ok {
		t.Error("in-flight result should populate the cache after invalidation")
	}
	if h.fetcher.calls[0] != 1 {
		t.Errorf("index 0 fetched %d times, want 1", h.fetcher.calls[0])
	}
}

func TestEngine_AttachRunsOnEveryApplication(t *testing.T) {
	attached := map[string]int{}
	counter := InteractorFunc(func(c *Content) error {
		attached[c.Raw]++
		return nil
	})
	h := newHarness(t,
		Config{ItemCount: 100, ItemExtent: 1, InitialItems: map[int]Item{0: {Content: "seed 0"}}},
		Options{Interactor: counter}, 2)

	run(h.engine, h.engine.Init()) // 0 from cache, 1 and 2 fetched
	want := map[string]int{"seed 0": 1, "item 1": 1, "item 2": 1}
	if diff := cmp.Diff(want, attached); diff != "" {
		t.Fatalf("after init (-want +got):\n%s", diff)
	}

	_ = h.vp.ScrollTo(50) // results for 50..52 are never delivered
	if msgs := collect(h.vp.ScrollTo(0)); len(msgs) != 0 {
		t.Fatal("scrolling back should be served from cache")
	}
	want = map[string]int{"seed 0": 2, "item 1": 2, "item 2": 2}
	if diff := cmp.Diff(want, attached); diff != "" {
		t.Errorf("after cache hits (-want +got):\n%s", diff)
	}

	run(h.engine, h.engine.RefreshSome([]int{1}))
	want["item 1"] = 3
	if diff := cmp.Diff(want, attached); diff != "" {
		t.Errorf("after refetch (-want +got):\n%s", diff)
	}
}

func TestEngine_StylesAppliedOnce(t *testing.T) {
	dest := &recordingDest{}
	seeds := map[int]Item{0: {Content: "a", Style: ".row { bold }"}}
	h := newHarness(t,
		Config{ItemCount: 10, ItemExtent: 1, InitialItems: seeds},
		Options{Styles: dest}, 5)
	h.fetcher.style = ".row { bold }"

	run(h.engine, h.engine.Init())
	run(h.engine, h.engine.RefreshAll())

	if diff := cmp.Diff([]string{".row { bold }"}, dest.fragments); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	if h.engine.StyleCount() != 1 {
		t.Errorf("StyleCount = %d", h.engine.StyleCount())
	}
}

func TestEngine_AttachFailuresAreContained(t *testing.T) {
	tests := []struct {
		name       string
		interactor Interactor
	}{
		{"error", InteractorFunc(func(c *Content) error {
			c.Lines = []string{"half"}
			return errBoom
		})},
		{"panic", InteractorFunc(func(c *Content) error {
			c.Zones = []Zone{{Start: 0, End: 1}}
			panic("attach exploded")
		})},
	}
	for _, tt := range tests {
		h := newHarness(t, Config{ItemCount: 2, ItemExtent: 1}, Options{Interactor: tt.interactor}, 2)
		run(h.engine, h.engine.Init())

		for i := range 2 {
			s := h.engine.Slot(i)
			if s.State() != SlotReady {
				t.Errorf("%s: slot %d = %v", tt.name, i, s.State())
				continue
			}
			c := s.Content()
			if diff := cmp.Diff([]string{fmt.Sprintf("item %d", i)}, c.Lines); diff != "" {
				t.Errorf("%s: slot %d lines not restored (-want +got):\n%s", tt.name, i, diff)
			}
			if len(c.Zones) != 0 {
				t.Errorf("%s: slot %d kept zones %v", tt.name, i, c.Zones)
			}
		}
		if got := h.engine.Stats().AttachErrors; got != 2 {
			t.Errorf("%s: AttachErrors = %d, want 2", tt.name, got)
		}
	}
}

func TestEngine_Destroy(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 10, ItemExtent: 1}, Options{}, 3)
	pending := h.engine.Init()

	h.engine.Destroy()
	h.engine.Destroy()

	if !errors.Is(h.engine.Err(), ErrDestroyed) {
		t.Errorf("Err() = %v, want ErrDestroyed", h.engine.Err())
	}

	if h.vp.Subscribers() != 0 {
		t.Errorf("subscribers = %d after Destroy", h.vp.Subscribers())
	}
	if msgs := collect(h.vp.ScrollTo(5)); len(msgs) != 0 {
		t.Error("scrolling a destroyed list should not render")
	}
	run(h.engine, pending)
	if h.engine.CachedCount() != 0 || h.engine.SlotCount() != 0 {
		t.Errorf("late results touched a destroyed list: cached %d slots %d",
			h.engine.CachedCount(), h.engine.SlotCount())
	}
	if h.engine.View(20) != "" {
		t.Error("destroyed list should render nothing")
	}
	if h.engine.RefreshAll() != nil || h.engine.RefreshSome([]int{1}) != nil {
		t.Error("refresh on a destroyed list should be a no-op")
	}
}

func TestEngine_IgnoresOtherListMessages(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 2, ItemExtent: 1}, Options{ID: "mine"}, 2)
	_ = h.engine.Init()

	h.engine.Update(ItemLoadedMsg{ListID: "theirs", Index: 0, Item: Item{Content: "foreign"}})
	if _, ok := h.engine.Cached(0); ok {
		t.Error("message for another list was applied")
	}
	if h.engine.Update(ui.SkeletonTickMsg{Owner: "theirs"}) != nil {
		t.Error("foreign tick should be ignored")
	}
}

func TestEngine_GeneratesID(t *testing.T) {
	a := newHarness(t, Config{ItemCount: 1, ItemExtent: 1}, Options{}, 1)
	b := newHarness(t, Config{ItemCount: 1, ItemExtent: 1}, Options{}, 1)
	if a.engine.ID() == "" || a.engine.ID() == b.engine.ID() {
		t.Errorf("ids %q and %q should be distinct and non-empty", a.engine.ID(), b.engine.ID())
	}
}

func TestEngine_View(t *testing.T) {
	seeds := map[int]Item{}
	for i := range 5 {
		seeds[i] = Item{Content: fmt.Sprintf("row %d", i)}
	}
	h := newHarness(t, Config{ItemCount: 5, ItemExtent: 1, InitialItems: seeds}, Options{}, 3)
	h.engine.Init()

	want := []string{"row 0   ", "row 1   ", "row 2   "}
	if diff := cmp.Diff(want, strings.Split(h.engine.View(8), "\n")); diff != "" {
		t.Errorf("top view mismatch (-want +got):\n%s", diff)
	}

	h.vp.ScrollTo(2)
	want = []string{"row 2   ", "row 3   ", "row 4   "}
	if diff := cmp.Diff(want, strings.Split(h.engine.View(8), "\n")); diff != "" {
		t.Errorf("scrolled view mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ViewMultiRowItemsAndScrollbar(t *testing.T) {
	seeds := map[int]Item{
		0: {Content: "title 0\nbody 0"},
		1: {Content: "title 1"},
	}
	h := newHarness(t,
		Config{ItemCount: 50, ItemExtent: 2, InitialItems: seeds},
		Options{ShowScrollbar: true}, 4)
	h.engine.Init()

	lines := strings.Split(h.engine.View(12), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w != 12 {
			t.Errorf("line %d width = %d, want 12", i, w)
		}
	}
	plain := make([]string, len(lines))
	for i, line := range lines {
		plain[i] = strings.TrimRight(ansi.Strip(ansi.Truncate(line, 11, "")), " ")
	}
	want := []string{"title 0", "body 0", "title 1", ""}
	if diff := cmp.Diff(want, plain); diff != "" {
		t.Errorf("content column mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_ViewLoadingPlaceholder(t *testing.T) {
	h := newHarness(t, Config{ItemCount: 5, ItemExtent: 1}, Options{}, 2)
	h.engine.Init()

	view := ansi.Strip(h.engine.View(20))
	if !strings.Contains(view, "░") {
		t.Errorf("loading rows should render a placeholder:\n%s", view)
	}
}

func TestEngine_Regions(t *testing.T) {
	seeds := map[int]Item{}
	for i := range 5 {
		seeds[i] = Item{Content: fmt.Sprintf("row %d", i)}
	}
	zoner := InteractorFunc(func(c *Content) error {
		c.Zones = []Zone{{Line: 0, Start: 0, End: 3, Action: "open"}}
		return nil
	})
	h := newHarness(t,
		Config{ItemCount: 5, ItemExtent: 1, InitialItems: seeds},
		Options{Interactor: zoner, ID: "list"}, 3)
	h.engine.Init()

	hm := mouse.NewHitMap()
	h.engine.Regions(hm, 2, 1, 20)
	if n := len(hm.Regions()); n != 3 {
		t.Fatalf("regions = %d, want 3", n)
	}

	tests := []struct {
		x, y int
		want *ZoneHit
	}{
		{2, 1, &ZoneHit{ListID: "list", Index: 0, Action: "open"}},
		{4, 2, &ZoneHit{ListID: "list", Index: 1, Action: "open"}},
		{5, 1, nil},
		{2, 4, nil},
	}
	for _, tt := range tests {
		r := hm.Test(tt.x, tt.y)
		if tt.want == nil {
			if r != nil {
				t.Errorf("(%d,%d) hit %+v, want nothing", tt.x, tt.y, r.Data)
			}
			continue
		}
		if r == nil {
			t.Errorf("(%d,%d) missed", tt.x, tt.y)
			continue
		}
		if got, _ := r.Data.(ZoneHit); got != *tt.want {
			t.Errorf("(%d,%d) = %+v, want %+v", tt.x, tt.y, got, *tt.want)
		}
	}

	h.vp.ScrollTo(1)
	hm.Clear()
	h.engine.Regions(hm, 2, 1, 20)
	if r := hm.Test(2, 1); r == nil || r.Data.(ZoneHit).Index != 1 {
		t.Errorf("after scroll top row should be item 1, got %+v", r)
	}
}

func TestEngine_RegionsClipToContentWidth(t *testing.T) {
	zoner := InteractorFunc(func(c *Content) error {
		c.Zones = []Zone{
			{Line: 0, Start: 2, End: 9, Action: "wide"},
			{Line: 0, Start: 5, End: 7, Action: "hidden"},
		}
		return nil
	})
	h := newHarness(t,
		Config{ItemCount: 1, ItemExtent: 1, InitialItems: map[int]Item{0: {Content: "row"}}},
		Options{Interactor: zoner, ShowScrollbar: true}, 1)
	h.engine.Init()

	// Width 6 leaves five content cells; the sixth is the scrollbar.
	hm := mouse.NewHitMap()
	h.engine.Regions(hm, 0, 0, 6)
	regions := hm.Regions()
	if len(regions) != 1 {
		t.Fatalf("regions = %+v, want only the clipped wide zone", regions)
	}
	if want := (mouse.Rect{X: 2, Y: 0, W: 3, H: 1}); regions[0].Rect != want {
		t.Errorf("rect = %+v, want %+v", regions[0].Rect, want)
	}
	if r := hm.Test(5, 0); r != nil {
		t.Errorf("scrollbar column hit %+v", r.Data)
	}
}
