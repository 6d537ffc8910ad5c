package dashboard

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// defaultBatchConcurrency is used when WithConcurrency is not given.
const defaultBatchConcurrency = 4

// BatchResult is the outcome of one query of a batch.
type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// BatchProcessor runs independent queries concurrently. Each query gets
// a fresh dashboard so tile state never leaks between queries.
type BatchProcessor struct {
	newDashboard func() (*Dashboard, error)
	concurrency  int
	logger       *slog.Logger

	results []BatchResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of queries running at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. newDashboard is called once
// per query.
func NewBatchProcessor(newDashboard func() (*Dashboard, error), opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		newDashboard: newDashboard,
		concurrency:  defaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch runs all requests and returns their results in request
// order. A failed query is reported in its BatchResult and does not stop
// the others; the returned error is only set when ctx ended.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, reqs []Request) ([]BatchResult, error) {
	bp.logger.Info("starting batch",
		"queries", len(reqs),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	bp.results = make([]BatchResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := bp.run(ctx, req)

			bp.mu.Lock()
			bp.results[i] = BatchResult{Request: req, Result: res, Err: err}
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("batch query failed",
					"query", strings.Join(req.Words, ", "),
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch complete",
		"queries", len(reqs),
		"elapsed", time.Since(start),
	)
	return bp.results, err
}

func (bp *BatchProcessor) run(ctx context.Context, req Request) (*Result, error) {
	d, err := bp.newDashboard()
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.Query(ctx, req)
}
