package service

import (
	"context"
	"log/slog"
	"time"

	"natours/internal/model"
	"natours/internal/repository"
)

const (
	paymentLogBuffer    = 100
	paymentLogBatchSize = 10
	paymentLogFlush     = time.Second
)

// PaymentLogger writes payment log entries asynchronously in batches.
type PaymentLogger struct {
	repo   repository.PaymentLogRepository
	logger *slog.Logger
	ch     chan model.PaymentLog
}

// NewPaymentLogger creates a logger; call Run to start writing.
func NewPaymentLogger(repo repository.PaymentLogRepository, logger *slog.Logger) *PaymentLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentLogger{
		repo:   repo,
		logger: logger,
		ch:     make(chan model.PaymentLog, paymentLogBuffer),
	}
}

// Run flushes batches until ctx is cancelled, then writes what is still
// queued and returns.
func (l *PaymentLogger) Run(ctx context.Context) {
	batch := make([]model.PaymentLog, 0, paymentLogBatchSize)
	ticker := time.NewTicker(paymentLogFlush)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := l.repo.CreateBatch(ctx, batch); err != nil {
			l.logger.Error("write payment logs", "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-l.ch:
			batch = append(batch, entry)
			if len(batch) >= paymentLogBatchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			final := context.WithoutCancel(ctx)
			for {
				select {
				case entry := <-l.ch:
					batch = append(batch, entry)
				default:
					flush(final)
					return
				}
			}
		}
	}
}

// Log queues entry. When the queue is full it is written synchronously.
// A nil logger discards entries.
func (l *PaymentLogger) Log(ctx context.Context, entry model.PaymentLog) {
	if l == nil {
		return
	}
	select {
	case l.ch <- entry:
	default:
		if err := l.repo.Create(ctx, &entry); err != nil {
			l.logger.ErrorContext(ctx, "write payment log", "event", entry.Event, "error", err)
		}
	}
}
