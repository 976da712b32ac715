package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

// ErrSourceClosed is returned by Run when the event source closes.
var ErrSourceClosed = errors.New("event source closed")

// Handler processes one notification.
type Handler interface {
	Handle(ctx context.Context, ev domain.NewTokenEvent)
}

// Runner fans notifications out to a fixed pool of workers.
type Runner struct {
	source        EventSource
	handler       Handler
	workers       int
	handleTimeout time.Duration
	logger        *zap.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source        EventSource
	Handler       Handler
	Workers       int           // Default: 4
	HandleTimeout time.Duration // Default: 30s
	Logger        *zap.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	handleTimeout := opts.HandleTimeout
	if handleTimeout <= 0 {
		handleTimeout = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		source:        opts.Source,
		handler:       opts.Handler,
		workers:       workers,
		handleTimeout: handleTimeout,
		logger:        logger,
	}
}

// Run dispatches events until ctx is cancelled or the source closes.
// In-flight events finish before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	jobs := make(chan domain.NewTokenEvent)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, jobs)
		}()
	}

	r.logger.Info("ingestion runner started", zap.Int("workers", r.workers))

	err := r.pump(ctx, jobs)
	close(jobs)
	wg.Wait()

	r.logger.Info("ingestion runner stopped")
	return err
}

func (r *Runner) pump(ctx context.Context, jobs chan<- domain.NewTokenEvent) error {
	events := r.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSourceClosed
			}
			select {
			case jobs <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (r *Runner) worker(ctx context.Context, jobs <-chan domain.NewTokenEvent) {
	for ev := range jobs {
		r.handle(ctx, ev)
	}
}

// handle runs one event with its own timeout. A panicking handler is
// logged and the worker moves on to the next event.
func (r *Runner) handle(ctx context.Context, ev domain.NewTokenEvent) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.handleTimeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("event handler panicked",
				zap.String("mint", ev.Mint),
				zap.String("panic", fmt.Sprint(p)),
			)
		}
	}()

	r.handler.Handle(hctx, ev)
}
