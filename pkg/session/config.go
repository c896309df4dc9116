package session

import "github.com/softgrove/vellum/pkg/ports"

// Config carries the session-level knobs. It is passed explicitly at
// construction; there is no ambient global configuration, so tests can run
// isolated sessions concurrently.
type Config struct {
	// MaxChapters is the chapter ceiling: the session is finished once
	// ChapterCount reaches it. Zero means no ceiling.
	MaxChapters int

	// MaxChoices caps the number of options presented per turn.
	MaxChoices int

	// AutoSave persists the world state after every successful advance.
	AutoSave bool

	// Generate holds the default model options for every generation request.
	Generate ports.GenerateOptions
}

// DefaultConfig returns the stock settings for a playable session.
func DefaultConfig() Config {
	return Config{
		MaxChapters: 50,
		MaxChoices:  4,
		AutoSave:    true,
		Generate: ports.GenerateOptions{
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   2048,
		},
	}
}
