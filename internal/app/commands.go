package app

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/wilbur182/vlist/internal/keymap"
	"github.com/wilbur182/vlist/internal/provider"
	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
)

// Zone actions emitted by providers.
const (
	ActionCopy    = "copy"
	ActionRefresh = "refresh"
	ActionOpen    = "open"
)

// CopiedMsg reports the outcome of a clipboard write.
type CopiedMsg struct {
	Index int
	Err   error
}

// ReloadedMsg reports that the provider re-read its source.
type ReloadedMsg struct {
	ListID string
	Count  int
	Err    error
}

// registerCommands binds every keymap command ID to its handler.
func (m *Model) registerCommands() {
	for _, c := range []keymap.Command{
		{ID: keymap.CmdDown, Name: "down", Handler: func() tea.Cmd { return m.viewport.ScrollBy(1) }},
		{ID: keymap.CmdUp, Name: "up", Handler: func() tea.Cmd { return m.viewport.ScrollBy(-1) }},
		{ID: keymap.CmdPageDown, Name: "page", Handler: m.viewport.PageDown},
		{ID: keymap.CmdPageUp, Handler: m.viewport.PageUp},
		{ID: keymap.CmdTop, Name: "top", Handler: m.viewport.Top},
		{ID: keymap.CmdBottom, Name: "bottom", Handler: m.viewport.Bottom},
		{ID: keymap.CmdRefreshAll, Name: "refresh", Handler: m.refreshAll},
		{ID: keymap.CmdRefreshTop, Name: "refresh top", Handler: m.refreshTop},
		{ID: keymap.CmdCopy, Name: "copy", Handler: func() tea.Cmd { return m.copyItem(m.topIndex()) }},
		{ID: keymap.CmdJump, Name: "jump", Handler: m.openJump},
		{ID: keymap.CmdJumpSubmit, Name: "go", Handler: m.submitJump},
		{ID: keymap.CmdJumpCancel, Name: "cancel", Handler: m.closeJump},
		{ID: keymap.CmdTheme, Name: "theme", Handler: m.cycleTheme},
		{ID: keymap.CmdQuit, Name: "quit", Handler: func() tea.Cmd { return tea.Quit }},
	} {
		m.keymap.RegisterCommand(c)
	}
}

func (m *Model) refreshAll() tea.Cmd {
	m.ShowToast("refreshing visible items", false)
	return m.engine.RefreshAll()
}

func (m *Model) refreshTop() tea.Cmd {
	index := m.topIndex()
	if index < 0 {
		return nil
	}
	return m.refreshItem(index)
}

func (m *Model) refreshItem(index int) tea.Cmd {
	m.ShowToast(fmt.Sprintf("refreshing item %d", index), false)
	return m.engine.RefreshSome([]int{index})
}

// copyItem writes the displayed text of a ready item to the clipboard.
func (m *Model) copyItem(index int) tea.Cmd {
	if index < 0 {
		return nil
	}
	s := m.engine.Slot(index)
	if s == nil || s.State() != virtual.SlotReady {
		m.ShowToast(fmt.Sprintf("item %d is not loaded", index), true)
		return nil
	}
	text := plainText(s.Content().Lines)
	write := m.clipboard
	return func() tea.Msg {
		return CopiedMsg{Index: index, Err: write(text)}
	}
}

// plainText strips styling and trailing blank lines from item lines.
func plainText(lines []string) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimRight(ansi.Strip(line), " ")
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// dispatchZone runs the action of a clicked content zone.
func (m *Model) dispatchZone(hit virtual.ZoneHit) tea.Cmd {
	if hit.ListID != m.engine.ID() {
		return nil
	}
	switch hit.Action {
	case ActionCopy:
		return m.copyItem(hit.Index)
	case ActionRefresh:
		return m.refreshItem(hit.Index)
	case ActionOpen:
		m.ShowToast(fmt.Sprintf("open item %d", hit.Index), false)
		return nil
	default:
		m.ShowToast(fmt.Sprintf("unknown action %q", hit.Action), true)
		return nil
	}
}

func (m *Model) openJump() tea.Cmd {
	m.jumping = true
	m.keymap.ResetPending()
	m.jumpInput.SetValue("")
	return tea.Batch(m.listResized(), m.jumpInput.Focus())
}

func (m *Model) closeJump() tea.Cmd {
	m.jumping = false
	m.jumpInput.Blur()
	return m.listResized()
}

// submitJump scrolls so the entered item index is at the top.
func (m *Model) submitJump() tea.Cmd {
	value := strings.ReplaceAll(strings.TrimSpace(m.jumpInput.Value()), ",", "")
	index, err := strconv.Atoi(value)
	closed := m.closeJump()
	if err != nil || index < 0 || index >= m.engine.ItemCount() {
		m.ShowToast(fmt.Sprintf("no item %q", m.jumpInput.Value()), true)
		return closed
	}
	return tea.Batch(closed, m.viewport.ScrollTo(index*m.engine.ItemExtent()))
}

// cycleTheme applies the next built-in theme and saves it.
func (m *Model) cycleTheme() tea.Cmd {
	themes := styles.ListThemes()
	if len(themes) == 0 {
		return nil
	}
	next := themes[0]
	if i := slices.Index(themes, styles.GetCurrentThemeName()); i >= 0 {
		next = themes[(i+1)%len(themes)]
	}
	styles.ApplyThemeWithOverrides(next, m.cfg.UI.ThemeOverrides)
	m.cfg.UI.Theme = next
	m.ShowToast("theme: "+next, false)
	if m.saveConfig != nil {
		if err := m.saveConfig(m.cfg); err != nil {
			m.logger.Warn("save config", "err", err)
		}
	}
	return nil
}

// reload re-reads the provider's source off the update loop.
func (m *Model) reload() tea.Cmd {
	listID := m.engine.ID()
	prov := m.prov
	return func() tea.Msg {
		if r, ok := prov.(provider.Reloader); ok {
			if err := r.Reload(); err != nil {
				return ReloadedMsg{ListID: listID, Err: err}
			}
		}
		count, err := prov.Count(context.Background())
		return ReloadedMsg{ListID: listID, Count: count, Err: err}
	}
}

// applyReload refreshes the list after a source change. A changed item
// count needs a new engine since the count is fixed per engine.
func (m *Model) applyReload(msg ReloadedMsg) tea.Cmd {
	if msg.ListID != m.engine.ID() {
		return nil
	}
	if msg.Err != nil {
		m.logger.Warn("reload failed", "provider", m.prov.ID(), "err", msg.Err)
		m.ShowToast("reload failed: "+msg.Err.Error(), true)
		return nil
	}
	if msg.Count == m.engine.ItemCount() {
		return m.engine.RefreshAll()
	}

	m.seeded = nil
	if err := m.buildEngine(context.Background()); err != nil {
		m.logger.Warn("rebuild list", "err", err)
		m.ShowToast("reload failed: "+err.Error(), true)
		return nil
	}
	m.ShowToast(fmt.Sprintf("source changed: %d items", m.engine.ItemCount()), false)
	return m.engine.Init()
}
