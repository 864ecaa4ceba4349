package audit

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/ranqr/internal/domain/ledger"
	"github.com/okian/ranqr/internal/domain/model"
	"github.com/okian/ranqr/pkg/logger"
	"github.com/okian/ranqr/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Source provides the state a point audit reads and repairs.
// repository.Store satisfies it.
type Source interface {
	Items(ctx context.Context, collectionID int64) ([]*model.Item, error)
	Comparisons(ctx context.Context, collectionID int64) ([]*model.Comparison, error)
	UpdatePoints(ctx context.Context, points map[int64]int) error
}

// Locker serializes an audit against concurrent votes on the same
// collection.
type Locker interface {
	Lock(collectionID int64)
	Unlock(collectionID int64)
}

// Worker drains audit requests and reconciles point totals.
type Worker struct {
	queue  Queue
	source Source
	locker Locker
	name   string

	done chan struct{}

	logger logger.Logger
}

// NewWorker creates a new worker.
func NewWorker(queue Queue, source Source, locker Locker, name string) *Worker {
	if name == "" {
		name = "auditor"
	}
	return &Worker{
		queue:  queue,
		source: source,
		locker: locker,
		name:   name,
		done:   make(chan struct{}),
		logger: logger.Get().Named(name),
	}
}

// Run starts the worker loop until ctx is canceled or the queue is
// closed and drained.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	requests := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-requests:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				metrics.RecordErrorByComponent("audit_worker", "audit_failed")
				w.logger.Error(ctx, "point audit failed",
					logger.Int64("collectionID", r.CollectionID),
					logger.Error(err),
				)
			}
		}
	}
}

// process recomputes the collection's point totals from its comparison
// log and overwrites any cached total that drifted.
func (w *Worker) process(ctx context.Context, r Request) error {
	start := time.Now()
	defer func() {
		metrics.RecordAuditLatency(float64(time.Since(start).Milliseconds()))
	}()

	w.locker.Lock(r.CollectionID)
	defer w.locker.Unlock(r.CollectionID)

	items, err := w.source.Items(ctx, r.CollectionID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	comps, err := w.source.Comparisons(ctx, r.CollectionID)
	if err != nil {
		return fmt.Errorf("load comparisons: %w", err)
	}

	truth := ledger.Recompute(items, comps)
	drift := make(map[int64]int)
	for _, it := range items {
		if want := truth[it.ID]; it.Points != want {
			drift[it.ID] = want
		}
	}

	metrics.RecordAuditRun()
	if len(drift) == 0 {
		return nil
	}

	if err := w.source.UpdatePoints(ctx, drift); err != nil {
		return fmt.Errorf("repair points: %w", err)
	}
	metrics.RecordAuditRepairs(len(drift))
	w.logger.Warn(ctx, "repaired drifted point totals",
		logger.Int64("collectionID", r.CollectionID),
		logger.Int("items", len(drift)),
	)
	return nil
}

// Pool manages multiple audit workers.
type Pool struct {
	workers []*Worker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, source Source, locker Locker) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("audit-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(queue, source, locker, "auditor-"+strconv.Itoa(i))
	}
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for all workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
