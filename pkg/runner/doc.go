/*
Package runner implements the interactive story loop.

It acts as the bridge between the session controller and the player: it
renders the current chapter, presents the available choices, reads a
selection, and advances the story until the player quits or the chapter
ceiling is reached. All interaction goes through a pluggable IOHandler so
the same loop serves a plain terminal, a styled TUI, or a scripted test.

# Usage

	r := runner.NewRunner(
		runner.WithLogger(logger),
		runner.WithRenderer(tui.Render),
	)

	if err := r.Run(ctx, ctrl); err != nil {
		log.Fatal(err)
	}
*/
package runner
