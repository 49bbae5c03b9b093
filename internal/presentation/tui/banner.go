package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the weft ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Cyan)
	lines := []struct{ text, color string }{
		{"                  __ _   ", "#2dd4bf"},
		{" __      __  ___ / _| |_ ", "#22d3ee"},
		{" \\ \\ /\\ / / / _ \\ |_| __|", "#38bdf8"},
		{"  \\ V  V / |  __/  _| |_ ", "#60a5fa"},
		{"   \\_/\\_/   \\___|_|  \\__|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, p.String("   v"+v).Faint())
	}
	fmt.Fprintln(w)
}
