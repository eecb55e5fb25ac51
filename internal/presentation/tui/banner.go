package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the weft ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                     __ _   ", "#818cf8"},
		{" __      _____  ___ / _| |_ ", "#a78bfa"},
		{" \\ \\ /\\ / / _ \\/ _ \\ |_| __|", "#c084fc"},
		{"  \\ V  V /  __/  __/  _| |_ ", "#e879f9"},
		{"   \\_/\\_/ \\___|\\___|_|  \\__|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
