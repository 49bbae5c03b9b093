package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/config"
	"github.com/aretw0/weft/pkg/domain"
)

// SignalContext is a context cancelled by SIGINT or SIGTERM that remembers
// which signal arrived.
type SignalContext struct {
	context.Context
	Cancel context.CancelFunc
	sig    atomic.Value
}

// NewSignalContext starts watching for interrupts until parent is done or
// Cancel is called.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{Context: ctx, Cancel: cancel}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			sc.sig.Store(sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return sc
}

// Signal returns the signal that cancelled the context, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sig, _ := sc.sig.Load().(os.Signal)
	return sig
}

// createLogger configures the application logger from settings.
// It writes to w (Stderr) to keep Stdout for run output.
func createLogger(settings config.Settings, w io.Writer) *slog.Logger {
	return logging.NewWithFormat(logging.ParseLevel(settings.LogLevel), settings.LogFormat, w)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Debug("Run Start", "run_id", e.RunID, "order", e.Order)
		},
		OnComponentStart: func(ctx context.Context, e *domain.ComponentEvent) {
			logger.Debug("Enter Component", "component", e.Component, "output", e.Output)
		},
		OnComponentEnd: func(ctx context.Context, e *domain.ComponentEvent) {
			if e.Err != nil {
				logger.Debug("Leave Component (Error)", "component", e.Component, "output", e.Output, "err", e.Err)
			} else {
				logger.Debug("Leave Component (Success)", "component", e.Component, "output", e.Output, "duration", e.Duration)
			}
		},
		OnLog: func(ctx context.Context, e *domain.LogEvent) {
			logger.Debug("Component Log", "component", e.Component, "name", e.Log.Name, "type", e.Log.Type)
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(w io.Writer, err error, sig os.Signal) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		if sig == os.Interrupt {
			fmt.Fprintln(w, "[CTRL+C]")
		}
		printSystemMessage(w, "Run interrupted.")
		return nil
	}
	return err
}
