package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/softgrove/vellum/internal/presentation/tui"
	"github.com/softgrove/vellum/pkg/domain"
	"github.com/softgrove/vellum/pkg/runner"
)

// sessionLockTTL bounds how long a crashed process can hold a shared
// session before another machine may take over.
const sessionLockTTL = 5 * time.Minute

// PlayOptions controls one invocation of the play loop.
type PlayOptions struct {
	// Resume loads an existing session instead of starting a new one.
	Resume bool
	// SessionID selects the session to resume; empty means the most
	// recently saved one.
	SessionID string
}

// RunPlay starts or resumes a session and hands it to the interactive
// loop.
func RunPlay(ctx context.Context, opts Options, play PlayOptions) error {
	logger := opts.Logger()
	stores, err := BuildStores(opts, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		tui.PrintBanner()
	}

	ctrl := BuildController(opts, stores, logger)

	if stores.Locker != nil && play.Resume && play.SessionID != "" {
		unlock, err := stores.Locker.Lock(ctx, play.SessionID, sessionLockTTL)
		if err != nil {
			return fmt.Errorf("session %s is in use elsewhere: %w", play.SessionID, err)
		}
		defer unlock(context.Background())
	}

	if play.Resume {
		if err := ctrl.Load(ctx, play.SessionID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("nothing to resume: %w", err)
			}
			return fmt.Errorf("resume session: %w", err)
		}
		fmt.Printf(">>> Resuming session %s at chapter %d.\n", ctrl.ID(), ctrl.CurrentRef().Seq)
	} else {
		fmt.Println(">>> Starting a new story...")
		if err := ctrl.New(ctx); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
		fmt.Printf(">>> Session %s created.\n", ctrl.ID())
	}

	runnerOpts := []runner.Option{runner.WithLogger(logger)}
	if interactive {
		runnerOpts = append(runnerOpts, runner.WithRenderer(tui.NewRenderer()))
	}

	return runner.NewRunner(runnerOpts...).Run(ctx, ctrl)
}
