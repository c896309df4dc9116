package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders chapter markdown using
// glamour, with the style picked from the terminal background.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
