package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Formwork ASCII banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Teal to indigo gradient.
	lines := []struct {
		text  string
		color string
	}{
		{"  ___                                  _    ", "#2dd4bf"},
		{" | __|__ _ _ _ __ __ __ _____ _ _| |__", "#22d3ee"},
		{" | _/ _ \\ '_| '  \\\\ V  V / _ \\ '_| / /", "#38bdf8"},
		{" |_|\\___/_| |_|_|_|\\_/\\_/\\___/_| |_\\_\\", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
