package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _____     _                  ",
	" |_   _| __(_) __ _  __ _  ___ ",
	"   | || '__| |/ _` |/ _` |/ _ \\",
	"   | || |  | | (_| | (_| |  __/",
	"   |_||_|  |_|\\__,_|\\__, |\\___|",
	"                    |___/      ",
}

// Teal to green, one color per line.
var bannerColors = []string{"#2dd4bf", "#34d399", "#4ade80", "#86efac", "#a3e635", "#bef264"}

// PrintBanner writes the ASCII banner and version to w, colored when the
// terminal supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("   pain triage "+v).Faint())
	}
	fmt.Fprintln(w)
}
