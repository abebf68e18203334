package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wilbur182/vlist/internal/styles"
)

// SkeletonTickMsg advances the shimmer of the skeleton owned by Owner.
type SkeletonTickMsg struct {
	Owner string
	Time  time.Time
}

// SkeletonTickInterval is the animation frame rate.
const SkeletonTickInterval = 80 * time.Millisecond

// Skeleton renders animated placeholder rows with a shimmer effect.
// Ticks are tagged with an owner so several skeletons can animate
// independently in one program.
type Skeleton struct {
	owner     string
	RowWidths []int // Width pattern for each row (cycles)

	frame    int
	active   bool
	shimmerW int
}

// NewSkeleton creates a skeleton for owner.
// If rowWidths is nil, uses a default varied pattern.
func NewSkeleton(owner string, rowWidths []int) Skeleton {
	if rowWidths == nil {
		rowWidths = []int{85, 60, 75, 55, 80, 65, 70, 50}
	}
	return Skeleton{
		owner:     owner,
		RowWidths: rowWidths,
		shimmerW:  6,
	}
}

// Start begins the shimmer animation.
func (s *Skeleton) Start() tea.Cmd {
	if s.active {
		return nil
	}
	s.active = true
	return s.tick()
}

// Stop halts the shimmer animation. The next tick is dropped.
func (s *Skeleton) Stop() {
	s.active = false
}

// IsActive returns whether the animation is running.
func (s Skeleton) IsActive() bool {
	return s.active
}

// Frame returns the current animation frame.
func (s Skeleton) Frame() int {
	return s.frame
}

// Update handles tick messages for this skeleton only.
func (s *Skeleton) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(SkeletonTickMsg)
	if !ok || tick.Owner != s.owner || !s.active {
		return nil
	}
	s.frame++
	return s.tick()
}

func (s *Skeleton) tick() tea.Cmd {
	owner := s.owner
	return tea.Tick(SkeletonTickInterval, func(t time.Time) tea.Msg {
		return SkeletonTickMsg{Owner: owner, Time: t}
	})
}

// Lines renders rows placeholder lines. seed offsets the row-width pattern
// so adjacent placeholders do not look identical.
func (s Skeleton) Lines(rows, width, seed int) []string {
	width = max(width, 10)

	cycleLen := width + s.shimmerW*2
	shimmerStart := s.frame % cycleLen

	dimStyle := lipgloss.NewStyle().Foreground(styles.TextSubtle)
	brightStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	lines := make([]string, 0, rows)
	for row := range rows {
		widthPct := s.RowWidths[(row+seed)%len(s.RowWidths)]
		rowWidth := min(max((width*widthPct)/100, 5), width)
		lines = append(lines, s.renderShimmerLine(rowWidth, shimmerStart+row*2, cycleLen, dimStyle, brightStyle))
	}
	return lines
}

// renderShimmerLine renders a single line with shimmer effect.
func (s Skeleton) renderShimmerLine(width, shimmerPos, cycleLen int, dimStyle, brightStyle lipgloss.Style) string {
	const (
		charDim    = "░"
		charBright = "▒"
	)

	shimmerPos = shimmerPos % cycleLen

	var sb strings.Builder
	inShimmer := false
	segmentStart := 0

	for col := 0; col <= width; col++ {
		distFromShimmer := col - (shimmerPos - s.shimmerW)
		nowInShimmer := distFromShimmer >= 0 && distFromShimmer < s.shimmerW && col < width

		if col == width || nowInShimmer != inShimmer {
			if segmentLen := col - segmentStart; segmentLen > 0 {
				if inShimmer {
					sb.WriteString(brightStyle.Render(strings.Repeat(charBright, segmentLen)))
				} else {
					sb.WriteString(dimStyle.Render(strings.Repeat(charDim, segmentLen)))
				}
			}
			segmentStart = col
			inShimmer = nowInShimmer
		}
	}

	return sb.String()
}
