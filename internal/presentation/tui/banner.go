package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner with the version tag.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Green-to-teal gradient, one color per line
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  ___ _ __   __ _| (_) ___ _ __ ", "#4ade80"},
		{" / _ \\/ __| '_ \\ / _` | | |/ _ \\ '__|", "#34d399"},
		{"|  __/\\__ \\ |_) | (_| | | |  __/ |   ", "#2dd4bf"},
		{" \\___||___/ .__/ \\__,_|_|_|\\___|_|   ", "#22d3ee"},
		{"          |_|                        ", "#38bdf8"},
	}

	fmt.Println()
	for _, l := range lines {
		fmt.Println(termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Println(termenv.String("  v" + strings.TrimSpace(version)).Foreground(p.Color("#64748b")))
	fmt.Println()
}
