package ui

import tea "github.com/charmbracelet/bubbletea"

// Viewport is a scrollable window over a tall column of rows. It notifies
// subscribers whenever the offset or the visible extent changes; each
// mutating method returns the batched commands of those subscribers.
type Viewport struct {
	offset  int
	extent  int
	content int // total rows, 0 if unknown

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func() tea.Cmd
}

// NewViewport creates a viewport showing extent rows.
func NewViewport(extent int) *Viewport {
	return &Viewport{extent: max(0, extent)}
}

// ScrollOffset returns the first visible row.
func (v *Viewport) ScrollOffset() int { return v.offset }

// ViewportExtent returns the number of visible rows.
func (v *Viewport) ViewportExtent() int { return v.extent }

// ContentExtent returns the total row count, or 0 if unsized.
func (v *Viewport) ContentExtent() int { return v.content }

// SetContentExtent sets the total row count and re-clamps the offset.
// It does not notify; the caller that sized the content renders itself.
func (v *Viewport) SetContentExtent(rows int) {
	v.content = max(0, rows)
	v.offset = v.clamp(v.offset)
}

// Subscribe registers fn to run after every change. The returned function
// removes the subscription; calling it more than once is harmless.
func (v *Viewport) Subscribe(fn func() tea.Cmd) func() {
	id := v.nextID
	v.nextID++
	v.subs = append(v.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range v.subs {
			if s.id == id {
				v.subs = append(v.subs[:i], v.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (v *Viewport) Subscribers() int { return len(v.subs) }

// ScrollTo moves the first visible row to offset, clamped to the content.
func (v *Viewport) ScrollTo(offset int) tea.Cmd {
	offset = v.clamp(offset)
	if offset == v.offset {
		return nil
	}
	v.offset = offset
	return v.notify()
}

// ScrollBy moves the offset by delta rows.
func (v *Viewport) ScrollBy(delta int) tea.Cmd {
	return v.ScrollTo(v.offset + delta)
}

// PageDown scrolls one viewport height down.
func (v *Viewport) PageDown() tea.Cmd { return v.ScrollBy(max(1, v.extent)) }

// PageUp scrolls one viewport height up.
func (v *Viewport) PageUp() tea.Cmd { return v.ScrollBy(-max(1, v.extent)) }

// Top scrolls to the first row.
func (v *Viewport) Top() tea.Cmd { return v.ScrollTo(0) }

// Bottom scrolls so the last row is visible.
func (v *Viewport) Bottom() tea.Cmd { return v.ScrollTo(v.maxOffset()) }

// AtBottom reports whether the last row is visible.
func (v *Viewport) AtBottom() bool { return v.offset >= v.maxOffset() }

// SetExtent resizes the visible window.
func (v *Viewport) SetExtent(rows int) tea.Cmd {
	rows = max(0, rows)
	if rows == v.extent {
		return nil
	}
	v.extent = rows
	v.offset = v.clamp(v.offset)
	return v.notify()
}

func (v *Viewport) maxOffset() int {
	if v.content == 0 {
		return max(0, v.offset)
	}
	return max(0, v.content-v.extent)
}

func (v *Viewport) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if v.content > 0 {
		return min(offset, max(0, v.content-v.extent))
	}
	return offset
}

func (v *Viewport) notify() tea.Cmd {
	subs := append([]subscriber(nil), v.subs...)
	cmds := make([]tea.Cmd, 0, len(subs))
	for _, s := range subs {
		if cmd := s.fn(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}
