package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	writeMaxAttempts = 3
	writeRetryStep   = 300 * time.Millisecond
	drainTimeout     = 2 * time.Second
)

type writeCmd struct {
	name string
	fn   func(context.Context) error
}

// WriterQueue runs database writes one at a time on a background goroutine.
type WriterQueue struct {
	logger    *slog.Logger
	queue     chan writeCmd
	retryStep time.Duration
	done      chan struct{}
	startOnce sync.Once
}

func NewWriterQueue(logger *slog.Logger, capacity int) *WriterQueue {
	if capacity <= 0 {
		capacity = 64
	}
	if logger == nil {
		logger = slog.Default().With("component", "writer")
	}

	return &WriterQueue{
		logger:    logger,
		queue:     make(chan writeCmd, capacity),
		retryStep: writeRetryStep,
		done:      make(chan struct{}),
	}
}

func (w *WriterQueue) Enqueue(name string, fn func(context.Context) error) {
	cmd := writeCmd{name: name, fn: fn}
	select {
	case w.queue <- cmd:
	default:
		w.logger.Warn("db write queue is full, deferring", "cmd", name)
		go func() {
			select {
			case w.queue <- cmd:
			case <-w.done:
				w.logger.Warn("db write dropped after shutdown", "cmd", name)
			}
		}()
	}
}

// Start processes writes until ctx is cancelled, then flushes what is already
// queued with a short deadline so the last connection survives a quit.
func (w *WriterQueue) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go func() {
			defer close(w.done)
			for {
				select {
				case <-ctx.Done():
					w.drain()

					return
				case cmd := <-w.queue:
					w.runWithRetry(ctx, cmd)
				}
			}
		}()
	})
}

// Done is closed once the queue has stopped and flushed.
func (w *WriterQueue) Done() <-chan struct{} {
	return w.done
}

func (w *WriterQueue) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case cmd := <-w.queue:
			w.runWithRetry(ctx, cmd)
		default:
			return
		}
	}
}

func (w *WriterQueue) runWithRetry(ctx context.Context, cmd writeCmd) {
	for attempt := 1; attempt <= writeMaxAttempts; attempt++ {
		err := cmd.fn(ctx)
		if err == nil {
			return
		}
		w.logger.Error("db write failed", "cmd", cmd.name, "attempt", attempt, "error", err)
		if attempt == writeMaxAttempts {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * w.retryStep):
		}
	}
}
