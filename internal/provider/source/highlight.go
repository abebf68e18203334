package source

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter renders single source lines with a chroma lexer and style.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter picks a lexer for filename and the named chroma style.
// Returns nil if no lexer matches; a nil Highlighter renders lines verbatim.
func NewHighlighter(filename, styleName string) *Highlighter {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Get(strings.TrimPrefix(ext, "."))
		}
	}
	if lexer == nil {
		return nil
	}

	style := chromastyles.Get(styleName)
	if style == nil {
		style = chromastyles.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(lexer), style: style}
}

// Line returns line with ANSI styling applied per token.
func (h *Highlighter) Line(line string) string {
	if h == nil {
		return line
	}
	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var sb strings.Builder
	for _, token := range iterator.Tokens() {
		// Chroma appends newlines to some tokens; they break width math.
		text := strings.TrimSuffix(token.Value, "\n")
		if text == "" {
			continue
		}
		sb.WriteString(h.tokenStyle(token.Type).Render(text))
	}
	return sb.String()
}

func (h *Highlighter) tokenStyle(tokenType chroma.TokenType) lipgloss.Style {
	entry := h.style.Get(tokenType)
	style := lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		style = style.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}
	return style
}
