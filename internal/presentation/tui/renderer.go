package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown for w using glamour.
// Terminals get an auto-detected style wrapped to their width; anything else
// gets the plain "notty" style.
func NewRenderer(w io.Writer) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle("notty")}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		opts = []glamour.TermRendererOption{glamour.WithAutoStyle()}
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			opts = append(opts, glamour.WithWordWrap(width))
		}
	}

	r, err := glamour.NewTermRenderer(opts...)
	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}
