package styles

import (
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// themeMu protects access to themeRegistry and currentTheme for thread safety
var themeMu sync.RWMutex

// hexColorRegex validates hex color codes (#RRGGBB or #RRGGBBAA with alpha)
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ColorPalette holds all theme colors
type ColorPalette struct {
	// Brand colors
	Primary string `json:"primary"`
	Accent  string `json:"accent"`

	// Status colors
	Success string `json:"success"`
	Warning string `json:"warning"`
	Error   string `json:"error"`

	// Text colors
	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	TextMuted     string `json:"textMuted"`
	TextSubtle    string `json:"textSubtle"`

	// Background colors
	BgPrimary   string `json:"bgPrimary"`
	BgSecondary string `json:"bgSecondary"`

	// Scrollbar colors
	ScrollbarTrack string `json:"scrollbarTrack"`
	ScrollbarThumb string `json:"scrollbarThumb"`

	Link string `json:"link"` // Clickable zones in list content

	// Third-party theme names
	SyntaxTheme   string `json:"syntaxTheme"`   // chroma style name
	MarkdownTheme string `json:"markdownTheme"` // glamour style name
}

// Theme represents a complete theme configuration
type Theme struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Colors      ColorPalette `json:"colors"`
}

// Built-in themes
var (
	// DefaultTheme is the dark theme used when no theme is configured
	DefaultTheme = Theme{
		Name:        "default",
		DisplayName: "Default Dark",
		Colors: ColorPalette{
			Primary: "#7C3AED", // Purple
			Accent:  "#F59E0B", // Amber

			Success: "#10B981", // Green
			Warning: "#F59E0B", // Amber
			Error:   "#EF4444", // Red

			TextPrimary:   "#F9FAFB",
			TextSecondary: "#9CA3AF",
			TextMuted:     "#6B7280",
			TextSubtle:    "#4B5563",

			BgPrimary:   "#111827",
			BgSecondary: "#1F2937",

			ScrollbarTrack: "#374151",
			ScrollbarThumb: "#9CA3AF",

			Link: "#60A5FA", // Light blue for links

			SyntaxTheme:   "monokai",
			MarkdownTheme: "dark",
		},
	}

	// DraculaTheme is based on the Dracula color scheme
	DraculaTheme = Theme{
		Name:        "dracula",
		DisplayName: "Dracula",
		Colors: ColorPalette{
			Primary: "#BD93F9", // Purple
			Accent:  "#FFB86C", // Orange

			Success: "#50FA7B", // Green
			Warning: "#FFB86C", // Orange
			Error:   "#FF5555", // Red

			TextPrimary:   "#F8F8F2", // Foreground
			TextSecondary: "#BFBFBF",
			TextMuted:     "#6272A4", // Comment
			TextSubtle:    "#44475A", // Current Line

			BgPrimary:   "#282A36", // Background
			BgSecondary: "#343746",

			ScrollbarTrack: "#44475A",
			ScrollbarThumb: "#6272A4",

			Link: "#8BE9FD", // Cyan

			SyntaxTheme:   "dracula",
			MarkdownTheme: "dracula",
		},
	}

	// NordTheme is based on the Nord color scheme
	NordTheme = Theme{
		Name:        "nord",
		DisplayName: "Nord",
		Colors: ColorPalette{
			Primary: "#88C0D0", // Frost 2
			Accent:  "#EBCB8B", // Aurora yellow

			Success: "#A3BE8C", // Aurora green
			Warning: "#EBCB8B", // Aurora yellow
			Error:   "#BF616A", // Aurora red

			TextPrimary:   "#ECEFF4", // Snow Storm 3
			TextSecondary: "#D8DEE9", // Snow Storm 1
			TextMuted:     "#4C566A", // Polar Night 4
			TextSubtle:    "#434C5E", // Polar Night 3

			BgPrimary:   "#2E3440", // Polar Night 1
			BgSecondary: "#3B4252", // Polar Night 2

			ScrollbarTrack: "#3B4252",
			ScrollbarThumb: "#81A1C1",

			Link: "#81A1C1", // Frost 3

			SyntaxTheme:   "nord",
			MarkdownTheme: "dark",
		},
	}
)

// themeRegistry holds all available themes
var themeRegistry = map[string]Theme{
	"default": DefaultTheme,
	"dracula": DraculaTheme,
	"nord":    NordTheme,
}

// currentTheme tracks the active theme name
var currentTheme = "default"

// IsValidHexColor checks if a string is a valid hex color code (#RRGGBB or #RRGGBBAA)
func IsValidHexColor(hex string) bool {
	return hexColorRegex.MatchString(hex)
}

// IsValidTheme checks if a theme name exists in the registry
func IsValidTheme(name string) bool {
	themeMu.RLock()
	defer themeMu.RUnlock()
	_, ok := themeRegistry[name]
	return ok
}

// GetTheme returns a theme by name, or the default theme if not found
func GetTheme(name string) Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if theme, ok := themeRegistry[name]; ok {
		return theme
	}
	return DefaultTheme
}

// GetCurrentThemeName returns the name of the currently active theme
func GetCurrentThemeName() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// ListThemes returns the names of all available themes in sorted order
func ListThemes() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return slices.Sorted(maps.Keys(themeRegistry))
}

// ApplyTheme applies a theme by name, updating all style variables
func ApplyTheme(name string) {
	ApplyThemeWithOverrides(name, nil)
}

// ApplyThemeWithOverrides applies a theme with color overrides from config.
// An override value is either a hex color or the key of another palette
// entry, which is resolved against the theme before any override applies.
// Unknown keys and invalid values are ignored.
func ApplyThemeWithOverrides(name string, overrides map[string]string) {
	theme := GetTheme(name)
	base := theme.Colors
	for key, value := range overrides {
		field := paletteField(&theme.Colors, key)
		if field == nil {
			continue
		}
		switch {
		case key == "syntaxTheme" || key == "markdownTheme":
			*field = value
		case IsValidHexColor(value):
			*field = value
		default:
			if ref := paletteField(&base, value); ref != nil && IsValidHexColor(*ref) {
				*field = *ref
			}
		}
	}

	ApplyThemeColors(theme)
	themeMu.Lock()
	currentTheme = theme.Name
	themeMu.Unlock()
}

// paletteField maps a config key to its palette entry.
func paletteField(p *ColorPalette, key string) *string {
	switch key {
	case "primary":
		return &p.Primary
	case "accent":
		return &p.Accent
	case "success":
		return &p.Success
	case "warning":
		return &p.Warning
	case "error":
		return &p.Error
	case "textPrimary":
		return &p.TextPrimary
	case "textSecondary":
		return &p.TextSecondary
	case "textMuted":
		return &p.TextMuted
	case "textSubtle":
		return &p.TextSubtle
	case "bgPrimary":
		return &p.BgPrimary
	case "bgSecondary":
		return &p.BgSecondary
	case "scrollbarTrack":
		return &p.ScrollbarTrack
	case "scrollbarThumb":
		return &p.ScrollbarThumb
	case "link":
		return &p.Link
	case "syntaxTheme":
		return &p.SyntaxTheme
	case "markdownTheme":
		return &p.MarkdownTheme
	}
	return nil
}

// ApplyThemeColors updates all style package variables from a theme. Call it
// from the update loop only; View reads the variables without locking.
func ApplyThemeColors(theme Theme) {
	c := theme.Colors

	Primary = lipgloss.Color(c.Primary)
	Accent = lipgloss.Color(c.Accent)

	Success = lipgloss.Color(c.Success)
	Warning = lipgloss.Color(c.Warning)
	Error = lipgloss.Color(c.Error)

	TextPrimary = lipgloss.Color(c.TextPrimary)
	TextSecondary = lipgloss.Color(c.TextSecondary)
	TextMuted = lipgloss.Color(c.TextMuted)
	TextSubtle = lipgloss.Color(c.TextSubtle)

	BgPrimary = lipgloss.Color(c.BgPrimary)
	BgSecondary = lipgloss.Color(c.BgSecondary)

	ScrollbarTrackColor = lipgloss.Color(c.ScrollbarTrack)
	ScrollbarThumbColor = lipgloss.Color(c.ScrollbarThumb)
	LinkColor = lipgloss.Color(c.Link)

	CurrentSyntaxTheme = c.SyntaxTheme
	CurrentMarkdownTheme = c.MarkdownTheme

	rebuildStyles()
}

// GetSyntaxTheme returns the current syntax highlighting theme name
func GetSyntaxTheme() string {
	return CurrentSyntaxTheme
}

// GetMarkdownTheme returns the current markdown rendering theme name
func GetMarkdownTheme() string {
	return CurrentMarkdownTheme
}
