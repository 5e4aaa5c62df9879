package service

import (
	"context"

	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// ComputePool bounds how many CPU-bound analysis computations run at
// once, so large multi-year scans cannot starve the request handlers.
// The computation itself has no internal suspension points; a caller
// that gives up cancels only its wait for a slot.
type ComputePool struct {
	slots chan struct{}
}

func NewComputePool(workers int) *ComputePool {
	if workers < 1 {
		workers = 1
	}
	return &ComputePool{slots: make(chan struct{}, workers)}
}

func (p *ComputePool) Do(ctx context.Context, fn func() error) error {
	metrics.ComputeQueueDepth.Inc()
	select {
	case p.slots <- struct{}{}:
		metrics.ComputeQueueDepth.Dec()
		defer func() { <-p.slots }()
		return fn()
	case <-ctx.Done():
		metrics.ComputeQueueDepth.Dec()
		return ctx.Err()
	}
}
