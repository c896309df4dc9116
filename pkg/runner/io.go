package runner

import "context"

// IOHandler defines the strategy for interacting with the player.
// This allows switching between a plain terminal, a styled TUI, and
// scripted IO in tests.
type IOHandler interface {
	// Render presents a chapter to the player.
	Render(ctx context.Context, markdown string) error

	// Choose presents the available options and blocks until the player
	// picks one. The returned string is either one of the given choices
	// or free text the loop interprets (lore lookups, the quit sentinel).
	Choose(ctx context.Context, choices []string) (string, error)

	// Notify prints an out-of-band message: endings, lore, warnings.
	Notify(ctx context.Context, msg string) error
}

// ContentRenderer transforms chapter markdown before it is written out.
// This allows TUI rendering (markdown to ANSI) without coupling the loop
// to a terminal library.
type ContentRenderer func(string) (string, error)
