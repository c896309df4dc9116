package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/softgrove/vellum/pkg/adapters/http"
)

// RunServe starts the read-only inspection API and blocks until a
// shutdown signal or a listener error.
func RunServe(opts Options, addr string) error {
	logger := opts.Logger()
	stores, err := BuildStores(opts, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	handler := httpadapter.NewHandler(stores.States, stores.Chapters,
		httpadapter.WithLinkStore(stores.Links),
		httpadapter.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("inspection api listening", "addr", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown did not complete: %w", err)
		}
		return nil
	}
}
