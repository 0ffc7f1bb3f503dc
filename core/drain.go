package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/solita/awsutils/metrics"
)

// Drainer empties a queue by fetching batches and deleting every message it sees
// until a fetch comes back empty.
type Drainer struct {
	source  MessageSource
	sink    MessageSink
	lock    sync.Locker
	metrics metrics.Collector
	logger  *slog.Logger

	// MaxBatches bounds the number of non-empty fetches. Zero keeps fetching until
	// the queue is empty, which never happens while producers keep enqueuing.
	MaxBatches int
}

// NewDrainer creates a drainer that holds lock from the first fetch until the
// last delete, so no other caller of lock runs in between. source and sink must
// not take lock themselves; see queues.SQS.Unlocked. A nil lock disables locking.
func NewDrainer(source MessageSource, sink MessageSink, lock sync.Locker, collector metrics.Collector, logger *slog.Logger) *Drainer {
	if logger == nil {
		logger = slog.Default()
	}
	if lock == nil {
		lock = noLock{}
	}
	return &Drainer{
		source:  source,
		sink:    sink,
		lock:    lock,
		metrics: collector,
		logger:  logger.With("component", "drainer"),
	}
}

// Drain returns the bodies of all removed messages in the order they were
// received. On failure the bodies collected so far are returned with the error;
// messages deleted before the failure are gone from the queue either way.
func (d *Drainer) Drain(ctx context.Context, queueURL string) ([]string, error) {
	d.logger.Debug("Draining queue", "queue", queueURL)
	start := time.Now()

	d.lock.Lock()
	bodies, err := d.drain(ctx, queueURL)
	d.lock.Unlock()

	if err != nil {
		if d.metrics != nil {
			d.metrics.DrainError()
		}
		return bodies, err
	}

	if d.metrics != nil {
		d.metrics.DrainSuccess(len(bodies), time.Since(start).Milliseconds())
	}
	d.logger.Debug("Drained queue", "queue", queueURL, "count", len(bodies))
	return bodies, nil
}

func (d *Drainer) drain(ctx context.Context, queueURL string) ([]string, error) {
	bodies := make([]string, 0)
	for batches := 0; ; batches++ {
		if d.MaxBatches > 0 && batches == d.MaxBatches {
			return bodies, fmt.Errorf("queue %s after %d batches: %w", queueURL, batches, ErrDrainIncomplete)
		}

		batch, err := d.source.ReceiveBatch(ctx, queueURL)
		if err != nil {
			return bodies, fmt.Errorf("failed to receive messages: %w", err)
		}
		if len(batch) == 0 {
			return bodies, nil
		}

		for _, msg := range batch {
			bodies = append(bodies, msg.Body)
			d.logger.Debug("Message found", "id", msg.ID, "body", msg.Body)
			if err := d.sink.Delete(ctx, queueURL, msg.ReceiptHandle); err != nil {
				return bodies, fmt.Errorf("failed to delete message %q: %w", msg.ID, err)
			}
		}
	}
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}
