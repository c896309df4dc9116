package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when play starts on a
// terminal.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Parchment-to-ember gradient.
	s1 := termenv.String(` __   __   ___  __    __    __  __  __  __ `).Foreground(p.Color("#fde68a"))
	s2 := termenv.String(` \ \ / /  / _ \| |   | |   |  ||  ||  \/  |`).Foreground(p.Color("#fcd34d"))
	s3 := termenv.String(`  \ V /  |  __/| |__ | |__ | |__| || |\/| |`).Foreground(p.Color("#fbbf24"))
	s4 := termenv.String(`   \_/    \___||____||____| \____/ |_|  |_|`).Foreground(p.Color("#f59e0b"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println()
}
