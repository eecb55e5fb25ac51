package tui

import (
	"os"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var badgeColors = map[domain.Status]string{
	domain.StatusPending: "#90a4ae",
	domain.StatusRunning: "#fbc02d",
	domain.StatusSuccess: "#2e7d32",
	domain.StatusError:   "#c62828",
}

// Badge renders status as a coloured, upper-case tag. With color off it is
// plain text.
func Badge(status domain.Status, color bool) string {
	text := " " + strings.ToUpper(string(status)) + " "
	if !color {
		return "[" + strings.TrimSpace(text) + "]"
	}
	p := termenv.ColorProfile()
	hex, ok := badgeColors[status]
	if !ok {
		hex = "#607d8b"
	}
	return termenv.String(text).Foreground(p.Color("#ffffff")).Background(p.Color(hex)).Bold().String()
}
