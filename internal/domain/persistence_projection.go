package domain

import (
	"context"
	"log/slog"
	"time"
)

// WriteQueue serializes persistence writes off the caller's goroutine.
type WriteQueue interface {
	Enqueue(name string, fn func(context.Context) error)
}

// QueuedRecorder persists successful connections through a WriteQueue so the
// connection lifecycle never blocks on disk.
type QueuedRecorder struct {
	queue   WriteQueue
	last    LastConnectionRepository
	history ConnectionHistoryRepository
	logger  *slog.Logger
}

func NewQueuedRecorder(queue WriteQueue, last LastConnectionRepository, history ConnectionHistoryRepository, logger *slog.Logger) *QueuedRecorder {
	if logger == nil {
		logger = slog.Default().With("component", "recorder")
	}

	return &QueuedRecorder{queue: queue, last: last, history: history, logger: logger}
}

func (r *QueuedRecorder) RecordConnection(l LastConnection) {
	if r == nil || r.queue == nil {
		return
	}
	r.logger.Debug("recording connection", "address", l.Address, "timestamp", l.TimestampMillis)
	if r.last != nil {
		r.queue.Enqueue("save_last_connection", func(ctx context.Context) error {
			return r.last.SaveLastConnection(ctx, l)
		})
	}
	if r.history != nil {
		r.queue.Enqueue("touch_connection_history", func(ctx context.Context) error {
			return r.history.Touch(ctx, l)
		})
	}
}

// LoadInitialAddress returns the address to prefill at startup. A missing or
// malformed record yields an empty string; it never triggers a connection.
func LoadInitialAddress(ctx context.Context, repo LastConnectionRepository, logger *slog.Logger) string {
	if repo == nil {
		return ""
	}
	if logger == nil {
		logger = slog.Default()
	}
	l, ok, err := repo.LoadLastConnection(ctx)
	if err != nil {
		logger.Debug("ignoring stored last connection", "error", err)

		return ""
	}
	if !ok {
		return ""
	}
	if at := l.Time(); !at.IsZero() {
		logger.Debug("restored last connection", "address", l.Address, "connected_at", at.Format(time.RFC3339))
	} else {
		logger.Debug("restored last connection without timestamp", "address", l.Address)
	}

	return l.Address
}
