package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dbsmedya/riskbench/internal/logger"
)

// signalContext returns a context that is cancelled on SIGTERM or SIGINT.
// The sweep stops after the run in flight; its results are already on disk.
func signalContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warnw("Received shutdown signal, stopping after the current run", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
