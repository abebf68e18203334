package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/wilbur182/vlist/internal/keymap"
	"github.com/wilbur182/vlist/internal/styles"
)

// View renders the header, the list, and the footer or jump prompt. It also
// rebuilds the mouse hit map for the frame.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	m.mouse.HitMap.Clear()
	m.engine.Regions(m.mouse.HitMap, 0, headerRows, m.width)

	parts := []string{m.renderHeader()}
	if rows := m.listRows(); rows > 0 {
		parts = append(parts, m.engine.View(m.width))
	}
	switch {
	case m.jumping:
		parts = append(parts, m.renderJump())
	case m.cfg.UI.ShowFooter:
		parts = append(parts, m.renderFooter())
	}
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader() string {
	count := m.engine.ItemCount()
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	left := "vlist"
	if m.version != "" {
		left += " " + m.version
	}
	left += "  " + m.prov.ID()
	right := fmt.Sprintf("%s %s", humanize.Comma(int64(count)), noun)
	return styles.Header.Width(m.width).Render(spread(left, right, m.width-2))
}

func (m *Model) renderFooter() string {
	var segs []string

	if m.engine.PendingCount() > 0 {
		segs = append(segs, m.spinner.View())
	}
	if visible := m.engine.Visible(); len(visible) > 0 {
		segs = append(segs, fmt.Sprintf("%s–%s",
			humanize.Comma(int64(visible[0])), humanize.Comma(int64(visible[len(visible)-1]))))
	} else {
		segs = append(segs, "empty")
	}
	segs = append(segs, fmt.Sprintf("cache %d · pending %d · slots %d/%d · styles %d",
		m.engine.CachedCount(), m.engine.PendingCount(), m.engine.SlotCount(), m.engine.SlotHighWater(), m.sheet.Len()))

	if msg, isErr := m.status(); msg != "" {
		style := styles.StatusOK
		if isErr {
			style = styles.StatusError
		}
		segs = append(segs, style.Render(msg))
	} else {
		segs = append(segs, m.renderHints(keymap.ContextList))
	}

	line := strings.Join(segs, styles.Muted.Render(" │ "))
	return styles.Footer.Width(m.width).Render(ansi.Truncate(line, max(0, m.width-2), "…"))
}

func (m *Model) renderHints(context string) string {
	var hints []string
	for _, h := range m.keymap.Hints(context) {
		hints = append(hints, styles.KeyHint.Render(h.Key)+" "+styles.Muted.Render(h.Name))
	}
	return strings.Join(hints, "  ")
}

func (m *Model) renderJump() string {
	line := m.jumpInput.View() + "  " + m.renderHints(keymap.ContextJump)
	return styles.Footer.Width(m.width).Render(ansi.Truncate(line, max(0, m.width-2), "…"))
}

// spread places left and right at the edges of width cells.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left+" "+right, max(0, width), "…")
	}
	return left + strings.Repeat(" ", gap) + right
}
