package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/wilbur182/vlist/internal/styles"
)

// ScrollbarParams configures a vertical scrollbar rendering.
type ScrollbarParams struct {
	ContentRows  int // Total rows of content
	Offset       int // First visible row
	ViewportRows int // Rows that fit in the viewport
	TrackHeight  int // Height of the scrollbar track in terminal rows
}

// Thumb returns the thumb position and size within the track.
// Size is 0 when all content is visible.
func (p ScrollbarParams) Thumb() (pos, size int) {
	if p.TrackHeight < 1 || p.ContentRows <= p.ViewportRows {
		return 0, 0
	}

	// Thumb size: proportional to visible fraction, minimum 1, clamped to track.
	size = min(max((p.ViewportRows*p.TrackHeight)/p.ContentRows, 1), p.TrackHeight)

	// Thumb position: proportional to offset within scrollable range.
	maxOffset := max(p.ContentRows-p.ViewportRows, 1)
	pos = (p.Offset * (p.TrackHeight - size)) / maxOffset
	pos = min(max(pos, 0), p.TrackHeight-size)
	return pos, size
}

// ScrollbarColumn returns one cell per track row. Rows are spaces when all
// content is visible so the column width stays reserved.
func ScrollbarColumn(params ScrollbarParams) []string {
	if params.TrackHeight < 1 {
		return nil
	}

	lines := make([]string, params.TrackHeight)
	pos, size := params.Thumb()
	if size == 0 {
		for i := range lines {
			lines[i] = " "
		}
		return lines
	}

	trackChar := lipgloss.NewStyle().Foreground(styles.ScrollbarTrackColor).Render("│")
	thumbChar := lipgloss.NewStyle().Foreground(styles.ScrollbarThumbColor).Render("┃")
	for i := range lines {
		if i >= pos && i < pos+size {
			lines[i] = thumbChar
		} else {
			lines[i] = trackChar
		}
	}
	return lines
}
