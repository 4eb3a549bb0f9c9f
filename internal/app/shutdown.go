package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// GracePeriod is how long a cancelled command may take to flush partial
// results before the process is forced to exit.
const GracePeriod = 30 * time.Second

// WithShutdown returns a context cancelled on SIGINT or SIGTERM. A second
// signal, or GracePeriod elapsing after the first, exits the process.
// Call done once the command has finished.
func WithShutdown(parent context.Context, logger *zap.Logger) (ctx context.Context, done func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	finished := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Warn("received signal, finishing with completed work", zap.String("signal", sig.String()))
			cancel()
		case <-finished:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Error("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(GracePeriod):
			logger.Error("graceful shutdown timed out, forcing exit", zap.Duration("grace", GracePeriod))
			os.Exit(1)
		case <-finished:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(finished)
		cancel()
	}
}
