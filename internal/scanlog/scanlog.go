// Package scanlog persists public-resolution access events off the request
// path. The pipeline is explicitly best-effort: enqueue never blocks and a
// failed append never reaches the caller.
package scanlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"roadguard/internal/driver/models"
)

// Appender is the slice of the store the worker needs.
type Appender interface {
	AppendScan(ctx context.Context, ev *models.ScanEvent) error
}

// Worker consumes scan events from a bounded inbox and persists them.
type Worker struct {
	store  Appender
	logger *slog.Logger
	inbox  chan models.ScanEvent
	now    func() time.Time
}

func NewWorker(store Appender, logger *slog.Logger, buffer int) *Worker {
	if buffer <= 0 {
		buffer = 256
	}
	return &Worker{
		store:  store,
		logger: logger,
		inbox:  make(chan models.ScanEvent, buffer),
		now:    time.Now,
	}
}

// Record enqueues a scan event without blocking. When the inbox is full the
// event is dropped and logged; resolution latency is never held hostage to
// audit writes.
func (w *Worker) Record(driverID uuid.UUID, rawUserAgent, ip string) {
	ev := models.ScanEvent{
		ID:        uuid.New(),
		DriverID:  driverID,
		UserAgent: rawUserAgent,
		IP:        ip,
		CreatedAt: w.now(),
	}
	if rawUserAgent != "" {
		ua := useragent.New(rawUserAgent)
		name, version := ua.Browser()
		if name != "" {
			ev.Browser = name + " " + version
		}
		ev.OS = ua.OS()
	}

	select {
	case w.inbox <- ev:
	default:
		w.logger.Warn("scan log inbox full, dropping event", "driver_id", driverID)
	}
}

// Run drains the inbox until ctx is cancelled. Append failures are logged and
// the worker keeps going.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case ev := <-w.inbox:
			w.append(ctx, ev)
		}
	}
}

// drain flushes whatever is queued at shutdown, bounded by a short deadline.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-w.inbox:
			w.append(ctx, ev)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, ev models.ScanEvent) {
	if err := w.store.AppendScan(ctx, &ev); err != nil {
		w.logger.Warn("scan event append failed",
			"driver_id", ev.DriverID,
			"error", err,
		)
	}
}
