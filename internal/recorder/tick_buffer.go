// Package recorder batches price observations into the price tick store.
package recorder

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/observability"
	"github.com/Jovzzqez008/sol-bot/internal/storage"
)

// Defaults
const (
	DefaultBatchSize     = 500
	DefaultFlushInterval = 5 * time.Second
	DefaultQueueSize     = 10_000
	flushTimeout         = 10 * time.Second
)

// TickBuffer queues price ticks from monitor tasks and writes them in
// batches. Enqueue never blocks; a full queue drops the tick.
type TickBuffer struct {
	store         storage.PriceTickStore
	queue         chan domain.PriceTick
	batchSize     int
	flushInterval time.Duration
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// TickBufferOptions contains configuration for creating a TickBuffer.
type TickBufferOptions struct {
	Store         storage.PriceTickStore
	BatchSize     int           // Default: 500
	FlushInterval time.Duration // Default: 5s
	QueueSize     int           // Default: 10000
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewTickBuffer creates a tick buffer.
func NewTickBuffer(opts TickBufferOptions) *TickBuffer {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	flushInterval := opts.FlushInterval
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TickBuffer{
		store:         opts.Store,
		queue:         make(chan domain.PriceTick, queueSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		metrics:       opts.Metrics,
	}
}

// Enqueue offers a tick without blocking. Returns false if it was dropped.
func (b *TickBuffer) Enqueue(t domain.PriceTick) bool {
	select {
	case b.queue <- t:
		return true
	default:
		if b.metrics != nil {
			b.metrics.TicksDropped.Inc()
		}
		return false
	}
}

// Pending returns the number of queued ticks.
func (b *TickBuffer) Pending() int {
	return len(b.queue)
}

// Run writes queued ticks until ctx is cancelled, then drains the queue
// and performs a final flush.
func (b *TickBuffer) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	batch := make([]*domain.PriceTick, 0, b.batchSize)

	for {
		select {
		case <-ctx.Done():
			batch = b.drain(batch)
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
			b.flush(flushCtx, batch)
			cancel()
			return nil

		case t := <-b.queue:
			tick := t
			batch = append(batch, &tick)
			if len(batch) >= b.batchSize {
				b.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (b *TickBuffer) drain(batch []*domain.PriceTick) []*domain.PriceTick {
	for {
		select {
		case t := <-b.queue:
			tick := t
			batch = append(batch, &tick)
		default:
			return batch
		}
	}
}

// flush writes the batch. Failed batches are logged and discarded.
func (b *TickBuffer) flush(ctx context.Context, batch []*domain.PriceTick) {
	if len(batch) == 0 || b.store == nil {
		return
	}

	if err := b.store.InsertBulk(ctx, batch); err != nil {
		b.logger.Warn("failed to flush price ticks",
			zap.Int("count", len(batch)),
			zap.Error(err),
		)
		return
	}

	if b.metrics != nil {
		b.metrics.TicksFlushed.Add(float64(len(batch)))
	}
	b.logger.Debug("flushed price ticks", zap.Int("count", len(batch)))
}
