package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"

	"github.com/wilbur182/vlist/internal/config"
	"github.com/wilbur182/vlist/internal/keymap"
	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/provider/synthetic"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
	"github.com/wilbur182/vlist/internal/watch"
)

// lineProvider serves "line N" items and can change its count.
type lineProvider struct {
	id      string
	count   int
	reloads int
	failing error
}

func (p *lineProvider) ID() string { return p.id }

func (p *lineProvider) Count(context.Context) (int, error) { return p.count, nil }

func (p *lineProvider) Item(_ context.Context, index int) (virtual.Item, error) {
	if err := provider.CheckIndex(index, p.count); err != nil {
		return virtual.Item{}, err
	}
	return virtual.Item{Content: fmt.Sprintf("line %d", index)}, nil
}

func (p *lineProvider) Close() error { return nil }

func (p *lineProvider) Reload() error {
	p.reloads++
	return p.failing
}

type testModel struct {
	*Model
	copied []string
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.UI.Animate = false
	return cfg
}

func newTestModel(t *testing.T, cfg *config.Config, p provider.Provider) *testModel {
	t.Helper()
	reg := provider.NewRegistry()
	if err := reg.Add(p); err != nil {
		t.Fatal(err)
	}
	tm := &testModel{}
	m, err := New(Options{
		Config:    cfg,
		Providers: reg,
		Provider:  p,
		Clipboard: func(s string) error {
			tm.copied = append(tm.copied, s)
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	tm.Model = m
	tm.drain(m.Init())
	tm.send(tea.WindowSizeMsg{Width: 60, Height: 10})
	return tm
}

// send delivers msg and runs every resulting command to completion.
func (tm *testModel) send(msg tea.Msg) {
	_, cmd := tm.Update(msg)
	tm.drain(cmd)
}

func (tm *testModel) drain(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10_000 {
			panic("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case tea.QuitMsg:
		default:
			_, next := tm.Update(msg)
			queue = append(queue, next)
		}
	}
}

func (tm *testModel) key(s string) {
	tm.send(keyMsg(s))
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+g":
		return tea.KeyMsg{Type: tea.KeyCtrlG}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNew_RequiresProvider(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New without a provider should fail")
	}
}

func TestNew_UnknownOverride(t *testing.T) {
	cfg := testConfig()
	cfg.Keymap.Overrides["x"] = "launch-rockets"
	p := synthetic.New(synthetic.Options{ID: "syn", Count: 10})
	reg := provider.NewRegistry()
	reg.Add(p)
	if _, err := New(Options{Config: cfg, Providers: reg, Provider: p}); !errors.Is(err, keymap.ErrUnknownCommand) {
		t.Errorf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestModel_ResizeSizesList(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 100}))

	// Header and footer take one row each.
	if got := tm.Viewport().ViewportExtent(); got != 8 {
		t.Errorf("list rows = %d, want 8", got)
	}
	want := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	if diff := cmp.Diff(want, tm.Engine().Visible()); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
	if tm.Engine().PendingCount() != 0 || tm.Engine().CachedCount() != 9 {
		t.Errorf("cache %d pending %d", tm.Engine().CachedCount(), tm.Engine().PendingCount())
	}
}

func TestModel_View(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 1234}))

	lines := strings.Split(ansi.Strip(tm.View()), "\n")
	if len(lines) != 10 {
		t.Fatalf("view has %d lines, want 10", len(lines))
	}
	if !strings.Contains(lines[0], "syn") || !strings.Contains(lines[0], "1,234 items") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Row 0  copy refresh") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[9], "0–8") || !strings.Contains(lines[9], "cache 9") ||
		!strings.Contains(lines[9], "slots 9/9") {
		t.Errorf("footer = %q", lines[9])
	}
}

func TestModel_KeysScroll(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 100}))

	tests := []struct {
		keys []string
		want int
	}{
		{[]string{"j"}, 1},
		{[]string{"j", "j", "k"}, 2},
		{[]string{"pgdown"}, 10},
		{[]string{"G"}, 92},
		{[]string{"g", "g"}, 0},
	}
	for _, tt := range tests {
		for _, k := range tt.keys {
			tm.key(k)
		}
		if got := tm.Viewport().ScrollOffset(); got != tt.want {
			t.Errorf("after %v offset = %d, want %d", tt.keys, got, tt.want)
		}
	}
	if tm.Engine().Visible()[0] != 0 {
		t.Errorf("visible after top = %v", tm.Engine().Visible())
	}
}

func TestModel_Jump(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 100}))

	_, _ = tm.Update(keyMsg("ctrl+g"))
	if !tm.jumping {
		t.Fatal("ctrl+g should open the jump prompt")
	}
	for _, r := range "42" {
		_, _ = tm.Update(keyMsg(string(r)))
	}
	tm.key("enter")
	if tm.jumping {
		t.Error("enter should close the prompt")
	}
	if got := tm.Viewport().ScrollOffset(); got != 42 {
		t.Errorf("offset = %d, want 42", got)
	}

	_, _ = tm.Update(keyMsg("ctrl+g"))
	for _, r := range "500" {
		_, _ = tm.Update(keyMsg(string(r)))
	}
	tm.key("enter")
	if msg, isErr := tm.status(); !isErr || !strings.Contains(msg, "500") {
		t.Errorf("status = %q (error %v)", msg, isErr)
	}
	if got := tm.Viewport().ScrollOffset(); got != 42 {
		t.Errorf("out-of-range jump moved to %d", got)
	}

	_, _ = tm.Update(keyMsg("ctrl+g"))
	tm.key("esc")
	if tm.jumping {
		t.Error("esc should cancel the prompt")
	}
}

func TestModel_CopyTopItem(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 100}))
	tm.key("j")
	tm.key("y")
	if diff := cmp.Diff([]string{"Row 1  copy refresh"}, tm.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
	if msg, _ := tm.status(); msg != "copied item 1" {
		t.Errorf("status = %q", msg)
	}
}

func TestModel_CopyFailureShowsError(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 5}))
	tm.clipboard = func(string) error { return errors.New("no display") }
	tm.key("y")
	if msg, isErr := tm.status(); !isErr || !strings.Contains(msg, "no display") {
		t.Errorf("status = %q (error %v)", msg, isErr)
	}
}

func TestModel_ZoneClicks(t *testing.T) {
	p := synthetic.New(synthetic.Options{ID: "syn", Count: 100})
	tm := newTestModel(t, testConfig(), p)
	tm.View()

	var copyHit, refreshHit *virtual.ZoneHit
	var copyX, copyY, refreshX, refreshY int
	for _, r := range tm.mouse.HitMap.Regions() {
		hit, ok := r.Data.(virtual.ZoneHit)
		if !ok || hit.Index != 2 {
			continue
		}
		switch hit.Action {
		case ActionCopy:
			copyHit, copyX, copyY = &hit, r.Rect.X, r.Rect.Y
		case ActionRefresh:
			refreshHit, refreshX, refreshY = &hit, r.Rect.X, r.Rect.Y
		}
	}
	if copyHit == nil || refreshHit == nil {
		t.Fatalf("zones for item 2 not registered: %+v", tm.mouse.HitMap.Regions())
	}
	if copyX != 7 || copyY != 3 {
		t.Errorf("copy zone at (%d,%d), want (7,3)", copyX, copyY)
	}

	tm.send(tea.MouseMsg{X: copyX, Y: copyY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if diff := cmp.Diff([]string{"Row 2  copy refresh"}, tm.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}

	before := p.Attempts(2)
	tm.send(tea.MouseMsg{X: refreshX, Y: refreshY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if p.Attempts(2) != before+1 {
		t.Errorf("refresh click: attempts %d -> %d", before, p.Attempts(2))
	}
}

func TestModel_MouseWheel(t *testing.T) {
	tm := newTestModel(t, testConfig(), synthetic.New(synthetic.Options{ID: "syn", Count: 100}))
	tm.send(tea.MouseMsg{X: 5, Y: 5, Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if got := tm.Viewport().ScrollOffset(); got != 3 {
		t.Errorf("offset after wheel = %d, want 3", got)
	}
}

func TestModel_RefreshTop(t *testing.T) {
	p := synthetic.New(synthetic.Options{ID: "syn", Count: 100})
	tm := newTestModel(t, testConfig(), p)
	tm.key("j")
	tm.key("j")
	tm.key("R")
	if p.Attempts(2) != 2 || p.Attempts(3) != 1 {
		t.Errorf("attempts: item 2 = %d, item 3 = %d", p.Attempts(2), p.Attempts(3))
	}
}

func TestModel_ReloadSameCountRefreshes(t *testing.T) {
	p := &lineProvider{id: "lines", count: 20}
	tm := newTestModel(t, testConfig(), p)
	listID := tm.Engine().ID()

	tm.send(tm.reload()())
	if p.reloads != 1 {
		t.Errorf("reloads = %d", p.reloads)
	}
	if tm.Engine().ID() != listID {
		t.Error("same count should keep the engine")
	}
	if tm.Engine().Stats().Fetches != 18 {
		t.Errorf("fetches = %d, want 18 (two passes of 9)", tm.Engine().Stats().Fetches)
	}
}

func TestModel_ReloadNewCountRebuilds(t *testing.T) {
	p := &lineProvider{id: "lines", count: 20}
	tm := newTestModel(t, testConfig(), p)
	old := tm.Engine()

	p.count = 3
	tm.send(tm.reload()())
	if !old.Destroyed() {
		t.Error("old engine should be destroyed")
	}
	if tm.Engine().ItemCount() != 3 {
		t.Errorf("item count = %d", tm.Engine().ItemCount())
	}
	if diff := cmp.Diff([]int{0, 1, 2}, tm.Engine().Visible()); diff != "" {
		t.Errorf("visible mismatch (-want +got):\n%s", diff)
	}
	if tm.Viewport().Subscribers() != 1 {
		t.Errorf("subscribers = %d, want 1", tm.Viewport().Subscribers())
	}

	// Results for the old list are ignored.
	tm.send(virtual.ItemLoadedMsg{ListID: old.ID(), Index: 0, Item: virtual.Item{Content: "late"}})
	if item, _ := tm.Engine().Cached(0); item.Content != "line 0" {
		t.Errorf("cached 0 = %q", item.Content)
	}
}

func TestModel_ReloadFailure(t *testing.T) {
	p := &lineProvider{id: "lines", count: 20, failing: errors.New("gone")}
	tm := newTestModel(t, testConfig(), p)
	tm.send(tm.reload()())
	if msg, isErr := tm.status(); !isErr || !strings.Contains(msg, "gone") {
		t.Errorf("status = %q (error %v)", msg, isErr)
	}
}

func TestModel_ChangedWithoutWatcherIgnored(t *testing.T) {
	p := &lineProvider{id: "lines", count: 5}
	tm := newTestModel(t, testConfig(), p)
	tm.send(watch.ChangedMsg{ListID: "lines"})
	if p.reloads != 0 {
		t.Errorf("reloads = %d", p.reloads)
	}
}

func TestModel_StatusExpires(t *testing.T) {
	tm := newTestModel(t, testConfig(), &lineProvider{id: "lines", count: 5})
	now := time.Now()
	tm.now = func() time.Time { return now }
	tm.ShowToast("hello", false)
	if msg, _ := tm.status(); msg != "hello" {
		t.Errorf("status = %q", msg)
	}
	now = now.Add(statusDuration + time.Millisecond)
	if msg, _ := tm.status(); msg != "" {
		t.Errorf("expired status = %q", msg)
	}
}

func TestModel_SeededItemsSkipFetch(t *testing.T) {
	p := &lineProvider{id: "lines", count: 50}
	reg := provider.NewRegistry()
	reg.Add(p)
	m, err := New(Options{
		Config:       testConfig(),
		Providers:    reg,
		Provider:     p,
		InitialItems: map[int]virtual.Item{0: {Content: "seeded", Style: ".s { bold }"}, 99: {Content: "beyond"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	tm := &testModel{Model: m}
	tm.drain(m.Init())
	tm.send(tea.WindowSizeMsg{Width: 40, Height: 4})

	if item, _ := m.Engine().Cached(0); item.Content != "seeded" {
		t.Errorf("item 0 = %q", item.Content)
	}
	if m.sheet.Len() != 1 {
		t.Errorf("sheet classes = %d", m.sheet.Len())
	}
	if m.Engine().Stats().Fetches != 2 {
		t.Errorf("fetches = %d, want 2", m.Engine().Stats().Fetches)
	}
}

func TestModel_Close(t *testing.T) {
	tm := newTestModel(t, testConfig(), &lineProvider{id: "lines", count: 5})
	if err := tm.Close(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(tm.Engine().Err(), virtual.ErrDestroyed) {
		t.Error("engine should be destroyed")
	}
}

func TestModel_CycleThemeSaves(t *testing.T) {
	t.Cleanup(func() { styles.ApplyTheme("default") })

	tm := newTestModel(t, testConfig(), &lineProvider{id: "lines", count: 5})
	var saved []string
	tm.saveConfig = func(cfg *config.Config) error {
		saved = append(saved, cfg.UI.Theme)
		return nil
	}
	tm.key("t")
	if tm.cfg.UI.Theme == "default" || styles.GetCurrentThemeName() != tm.cfg.UI.Theme {
		t.Errorf("theme = %q, current = %q", tm.cfg.UI.Theme, styles.GetCurrentThemeName())
	}
	if diff := cmp.Diff([]string{tm.cfg.UI.Theme}, saved); diff != "" {
		t.Errorf("saved mismatch (-want +got):\n%s", diff)
	}
}
