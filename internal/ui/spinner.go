package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wilbur182/vlist/internal/styles"
)

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// Spinner is a passive braille spinner. It issues no ticks; the owner calls
// Advance, for example once per completed fetch.
type Spinner struct {
	frame int
}

// Advance moves to the next frame.
func (s *Spinner) Advance() {
	s.frame = (s.frame + 1) % len(spinnerFrames)
}

// Frame returns the current frame number.
func (s Spinner) Frame() int { return s.frame }

// View renders the current frame.
func (s Spinner) View() string {
	return lipgloss.NewStyle().Foreground(styles.Accent).Render(string(spinnerFrames[s.frame]))
}
