package ingestion

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
)

// WorkerPool processes whole CSV files concurrently: each worker
// parses a file and bulk loads the surviving rows.
type WorkerPool struct {
	workers  int
	parser   *Parser
	loader   *BulkLoader
	jobQueue chan Job
	wg       sync.WaitGroup
}

type Job struct {
	FilePath  string
	Timeframe domain.Timeframe
	Result    chan<- JobResult
}

type JobResult struct {
	FilePath     string
	RecordsCount int64
	DroppedRows  int
	Error        error
}

func NewWorkerPool(workers int, parser *Parser, loader *BulkLoader) *WorkerPool {
	return &WorkerPool{
		workers:  workers,
		parser:   parser,
		loader:   loader,
		jobQueue: make(chan Job, workers*2),
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) Submit(job Job) {
	wp.jobQueue <- job
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			job.Result <- wp.processFile(ctx, job)
		}
	}
}

func (wp *WorkerPool) processFile(ctx context.Context, job Job) JobResult {
	file, err := os.Open(job.FilePath)
	if err != nil {
		return JobResult{
			FilePath: job.FilePath,
			Error:    fmt.Errorf("opening file: %w", err),
		}
	}
	defer file.Close()

	parseResult, err := wp.parser.ParseFile(ctx, file)
	if err != nil {
		return JobResult{
			FilePath: job.FilePath,
			Error:    fmt.Errorf("parsing file: %w", err),
		}
	}

	count, err := wp.loader.LoadRows(ctx, job.Timeframe, parseResult.Rows)
	if err != nil {
		return JobResult{
			FilePath:     job.FilePath,
			RecordsCount: count,
			DroppedRows:  parseResult.Dropped,
			Error:        fmt.Errorf("loading rows: %w", err),
		}
	}

	return JobResult{
		FilePath:     job.FilePath,
		RecordsCount: count,
		DroppedRows:  parseResult.Dropped,
	}
}
