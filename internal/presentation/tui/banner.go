package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for alf.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct{ text, color string }{
		{"        _  __ ", "#818cf8"},
		{"   __ _| |/ _|", "#a78bfa"},
		{"  / _` | | |_ ", "#c084fc"},
		{" | (_| | |  _|", "#e879f9"},
		{"  \\__,_|_|_|  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
