package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TextHandler implements the standard text-based interface: rendered
// chapters, a numbered choice menu, and a "> " prompt.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the background reader exactly once. Reading on a
// goroutine lets Choose honor context cancellation even though the
// underlying Read blocks.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')

		if text != "" {
			h.inputChan <- inputResult{text: text}
		}

		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff to prevent CPU spikes on persistent failure.
			time.Sleep(50 * time.Millisecond)
		}
	}
}

// Render writes a chapter, passing it through the configured renderer
// first. A renderer failure falls back to the raw markdown.
func (h *TextHandler) Render(ctx context.Context, markdown string) error {
	output := markdown
	if h.Renderer != nil {
		if rendered, err := h.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

// Choose prints the numbered menu and reads a selection. A number picks
// the matching entry; anything else is returned as free text for the
// loop to interpret. Invalid numbers and rejected input re-prompt.
func (h *TextHandler) Choose(ctx context.Context, choices []string) (string, error) {
	h.initPump()

	fmt.Fprintln(h.Writer)
	for i, choice := range choices {
		fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, choice)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}

			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			if clean == "" {
				continue
			}

			if n, err := strconv.Atoi(clean); err == nil {
				if n < 1 || n > len(choices) {
					fmt.Fprintf(h.Writer, "Pick a number between 1 and %d.\n", len(choices))
					continue
				}
				return choices[n-1], nil
			}
			return clean, nil
		}
	}
}

// Notify prints an out-of-band message on its own line.
func (h *TextHandler) Notify(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "\n%s\n", strings.TrimSpace(msg))
	return err
}
