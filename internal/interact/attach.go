// Package interact turns declarative markers in item content into styled
// text and clickable zones.
//
// Two markers are recognised inside a line:
//
//	[[click:ACTION|label]]  label becomes a zone that dispatches ACTION
//	[[.class|text]]         text is rendered with a style sheet class
//
// A backslash before "[[" makes it literal. Inside a marker a backslash makes
// the next byte literal, so "\]]" does not close it. Everything else is
// copied through unchanged.
package interact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/wilbur182/vlist/internal/styles"
	"github.com/wilbur182/vlist/internal/virtual"
)

// ErrMalformedMarker is returned for a marker that cannot be parsed.
var ErrMalformedMarker = errors.New("interact: malformed marker")

const (
	markerOpen  = "[["
	markerClose = "]]"
	clickPrefix = "click:"
)

// Escape makes every "[[" in s literal.
func Escape(s string) string {
	return strings.ReplaceAll(s, markerOpen, `\`+markerOpen)
}

// EscapeText makes s safe as the text of a marker.
func EscapeText(s string) string {
	return markerTextEscaper.Replace(s)
}

var markerTextEscaper = strings.NewReplacer(`\`, `\\`, "]", `\]`)

// ClassRenderer renders text with a named style class.
type ClassRenderer interface {
	Render(class, text string) string
}

// Attacher rewrites content lines from their raw text. It satisfies
// virtual.Interactor.
type Attacher struct {
	classes   ClassRenderer
	linkStyle lipgloss.Style
}

// NewAttacher creates an attacher resolving classes through classes, which
// may be nil to leave class markers unstyled.
func NewAttacher(classes ClassRenderer) *Attacher {
	return &Attacher{classes: classes, linkStyle: styles.Link}
}

// Attach rebuilds c.Lines and c.Zones from c.Raw. On error c is unchanged.
func (a *Attacher) Attach(c *virtual.Content) error {
	raw := strings.Split(c.Raw, "\n")
	lines := make([]string, len(raw))
	var zones []virtual.Zone

	for i, line := range raw {
		out, lineZones, err := a.line(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		lines[i] = out
		for _, z := range lineZones {
			z.Line = i
			zones = append(zones, z)
		}
	}

	c.Lines = lines
	c.Zones = zones
	return nil
}

// line expands the markers of one line and returns the zones it declares.
func (a *Attacher) line(s string) (string, []virtual.Zone, error) {
	if !strings.Contains(s, markerOpen) {
		return s, nil, nil
	}

	var sb strings.Builder
	var zones []virtual.Zone
	col := 0

	for {
		start := strings.Index(s, markerOpen)
		if start < 0 {
			sb.WriteString(s)
			break
		}
		if start > 0 && s[start-1] == '\\' {
			literal := s[:start-1] + markerOpen
			sb.WriteString(literal)
			col += ansi.StringWidth(literal)
			s = s[start+len(markerOpen):]
			continue
		}
		literal := s[:start]
		sb.WriteString(literal)
		col += ansi.StringWidth(literal)

		body, rest, ok := markerBody(s[start+len(markerOpen):])
		if !ok {
			return "", nil, fmt.Errorf("%w: unterminated %q", ErrMalformedMarker, s[start:])
		}
		s = rest

		head, text, found := strings.Cut(body, "|")
		if !found {
			return "", nil, fmt.Errorf("%w: missing '|' in %q", ErrMalformedMarker, body)
		}
		switch {
		case strings.HasPrefix(head, clickPrefix):
			action := strings.TrimPrefix(head, clickPrefix)
			if action == "" || text == "" {
				return "", nil, fmt.Errorf("%w: empty click marker %q", ErrMalformedMarker, body)
			}
			width := runewidth.StringWidth(text)
			sb.WriteString(a.linkStyle.Render(text))
			zones = append(zones, virtual.Zone{Start: col, End: col + width, Action: action})
			col += width
		case strings.HasPrefix(head, "."):
			class := head[1:]
			if class == "" {
				return "", nil, fmt.Errorf("%w: empty class in %q", ErrMalformedMarker, body)
			}
			rendered := text
			if a.classes != nil {
				rendered = a.classes.Render(class, text)
			}
			sb.WriteString(rendered)
			col += ansi.StringWidth(rendered)
		default:
			return "", nil, fmt.Errorf("%w: unknown marker %q", ErrMalformedMarker, head)
		}
	}
	return sb.String(), zones, nil
}

// markerBody returns the unescaped text of s up to its first unescaped "]]"
// and what follows the close.
func markerBody(s string) (body, rest string, ok bool) {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			i++
			sb.WriteByte(s[i])
		case strings.HasPrefix(s[i:], markerClose):
			return sb.String(), s[i+len(markerClose):], true
		default:
			sb.WriteByte(s[i])
		}
	}
	return "", "", false
}
