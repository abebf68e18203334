package styles

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ErrMalformedRule is returned when a style fragment rule cannot be parsed.
var ErrMalformedRule = errors.New("malformed style rule")

// Sheet accumulates style fragments and exposes the classes they declare.
//
// A fragment holds one or more rules of the form
//
//	.name { fg: #RRGGBB; bg: #RRGGBB; bold; italic; underline; faint }
//
// Later rules for the same class replace earlier ones. Sheet is not safe for
// concurrent use; it is fed from the Bubble Tea update loop.
type Sheet struct {
	text      strings.Builder
	fragments int
	classes   map[string]lipgloss.Style
	errs      []error
}

// NewSheet creates an empty style sheet.
func NewSheet() *Sheet {
	return &Sheet{classes: make(map[string]lipgloss.Style)}
}

// AppendStyle appends a fragment to the sheet and registers its classes.
// Rules that fail to parse are skipped and recorded in Errors.
func (s *Sheet) AppendStyle(fragment string) {
	if s.text.Len() > 0 {
		s.text.WriteByte('\n')
	}
	s.text.WriteString(fragment)
	s.fragments++

	rules, errs := ParseRules(fragment)
	s.errs = append(s.errs, errs...)
	for name, style := range rules {
		s.classes[name] = style
	}
}

// Render renders text with the named class, or returns text unchanged if the
// class is unknown.
func (s *Sheet) Render(class, text string) string {
	style, ok := s.classes[class]
	if !ok {
		return text
	}
	return style.Render(text)
}

// Has reports whether a class has been declared.
func (s *Sheet) Has(class string) bool {
	_, ok := s.classes[class]
	return ok
}

// Classes returns declared class names in sorted order.
func (s *Sheet) Classes() []string {
	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Text returns every appended fragment, newline separated.
func (s *Sheet) Text() string {
	return s.text.String()
}

// Len returns the number of fragments appended.
func (s *Sheet) Len() int {
	return s.fragments
}

// Errors returns parse errors from rejected rules.
func (s *Sheet) Errors() []error {
	return append([]error(nil), s.errs...)
}

// ParseRules parses every rule in a fragment.
func ParseRules(fragment string) (map[string]lipgloss.Style, []error) {
	rules := make(map[string]lipgloss.Style)
	var errs []error

	rest := fragment
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			break
		}
		open := strings.IndexByte(rest, '{')
		end := strings.IndexByte(rest, '}')
		if open < 0 || end < open {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMalformedRule, rest))
			break
		}

		selector := strings.TrimSpace(rest[:open])
		body := rest[open+1 : end]
		rest = rest[end+1:]

		name, ok := strings.CutPrefix(selector, ".")
		if !ok || name == "" || strings.ContainsAny(name, " \t\n") {
			errs = append(errs, fmt.Errorf("%w: bad selector %q", ErrMalformedRule, selector))
			continue
		}

		style, err := parseDeclarations(body)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: .%s: %v", ErrMalformedRule, name, err))
			continue
		}
		rules[name] = style
	}
	return rules, errs
}

// parseDeclarations converts a rule body into a lipgloss style.
func parseDeclarations(body string) (lipgloss.Style, error) {
	style := lipgloss.NewStyle()
	for _, decl := range strings.Split(body, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		key, value, hasValue := strings.Cut(decl, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "fg", "bg":
			if !hasValue || !IsValidHexColor(value) {
				return style, fmt.Errorf("invalid color %q for %s", value, key)
			}
			if key == "fg" {
				style = style.Foreground(lipgloss.Color(value))
			} else {
				style = style.Background(lipgloss.Color(value))
			}
		case "bold":
			style = style.Bold(true)
		case "italic":
			style = style.Italic(true)
		case "underline":
			style = style.Underline(true)
		case "faint":
			style = style.Faint(true)
		default:
			return style, fmt.Errorf("unknown property %q", key)
		}
	}
	return style, nil
}
