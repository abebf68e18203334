// Package styles holds the color palette, shared lipgloss styles, and the
// style sheet that collects style fragments delivered with list content.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette colors, set by ApplyThemeColors.
var (
	Primary lipgloss.Color
	Accent  lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color
	TextSubtle    lipgloss.Color

	BgPrimary   lipgloss.Color
	BgSecondary lipgloss.Color

	ScrollbarTrackColor lipgloss.Color
	ScrollbarThumbColor lipgloss.Color
	LinkColor           lipgloss.Color

	CurrentSyntaxTheme   string
	CurrentMarkdownTheme string
)

// Shared styles, rebuilt on theme change.
var (
	Header      lipgloss.Style
	Footer      lipgloss.Style
	Muted       lipgloss.Style
	StatusError lipgloss.Style
	StatusOK    lipgloss.Style
	Link        lipgloss.Style
	ItemError   lipgloss.Style
	PromptLabel lipgloss.Style
	KeyHint     lipgloss.Style
	IndexGutter lipgloss.Style
)

func init() {
	ApplyThemeColors(DefaultTheme)
}

// rebuildStyles recreates all lipgloss styles with current colors
func rebuildStyles() {
	Header = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(BgSecondary).
		Bold(true).
		Padding(0, 1)

	Footer = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(BgSecondary).
		Padding(0, 1)

	Muted = lipgloss.NewStyle().Foreground(TextMuted)

	StatusError = lipgloss.NewStyle().Foreground(Error).Bold(true)
	StatusOK = lipgloss.NewStyle().Foreground(Success)

	Link = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)

	ItemError = lipgloss.NewStyle().Foreground(Error)

	PromptLabel = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	KeyHint = lipgloss.NewStyle().Foreground(Primary)
	IndexGutter = lipgloss.NewStyle().Foreground(TextSubtle)
}
