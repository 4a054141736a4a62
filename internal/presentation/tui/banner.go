// Package tui holds the terminal presentation pieces of the CLI.
package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ivctl startup banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	lines := []string{
		`  _          _   _ `,
		` (_)_ _____ | |_| |`,
		` | \ V / _|_   _| |`,
		` |_|\_/\__| |_| |_|`,
	}
	// Amber-to-red ramp, roughly an LED warming up.
	colors := []string{"#fbbf24", "#fb923c", "#f87171", "#ef4444"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(termenv.String(line).Foreground(p.Color(colors[i])))
	}
	fmt.Println()
}
