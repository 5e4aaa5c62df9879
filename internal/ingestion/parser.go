// Package ingestion parses per-ticker OHLCV bhavcopy CSVs and bulk
// loads them into the price tables. Parsing is partial-success: a bad
// numeric field is nulled, a bad date drops the row, and in both cases
// a counter records the failure while the rest of the file proceeds.
package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// Row is one parsed price observation, keyed by symbol until the
// loader resolves ticker IDs.
type Row struct {
	Symbol       string
	Date         time.Time
	Open         *decimal.Decimal
	High         *decimal.Decimal
	Low          *decimal.Decimal
	Close        *decimal.Decimal
	Volume       decimal.Decimal
	OpenInterest decimal.Decimal
	WeekType     domain.WeekType
}

type Parser struct {
	batchSize int
	workers   int
}

func NewParser(batchSize, workers int) *Parser {
	if workers < 1 {
		workers = 1
	}
	return &Parser{batchSize: batchSize, workers: workers}
}

type ParseResult struct {
	Rows    []Row
	Dropped int
	Errors  []error
}

// Expected columns: symbol,date,open,high,low,close,volume,open_interest
// with an optional trailing week_type for weekly files.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	jobs := make(chan []string, p.workers*2)
	results := make(chan *ParseResult, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)

		// Skip the header line.
		if _, err := csvReader.Read(); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
				record, err := csvReader.Read()
				if err == io.EOF {
					return
				}
				if err != nil {
					continue
				}
				jobs <- record
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	final := &ParseResult{Rows: make([]Row, 0, p.batchSize)}
	for result := range results {
		final.Rows = append(final.Rows, result.Rows...)
		final.Dropped += result.Dropped
		final.Errors = append(final.Errors, result.Errors...)
	}
	return final, nil
}

func (p *Parser) worker(ctx context.Context, jobs <-chan []string,
	results chan<- *ParseResult, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := &ParseResult{Rows: make([]Row, 0, p.batchSize)}
	flush := func() {
		if len(batch.Rows) > 0 || batch.Dropped > 0 || len(batch.Errors) > 0 {
			results <- batch
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case record, ok := <-jobs:
			if !ok {
				flush()
				return
			}

			row, err := p.parseRecord(record)
			if err != nil {
				batch.Dropped++
				batch.Errors = append(batch.Errors, err)
				continue
			}
			batch.Rows = append(batch.Rows, *row)

			if len(batch.Rows) >= p.batchSize {
				results <- batch
				batch = &ParseResult{Rows: make([]Row, 0, p.batchSize)}
			}
		}
	}
}

func (p *Parser) parseRecord(record []string) (*Row, error) {
	if len(record) < 8 {
		metrics.FieldParseFailures.WithLabelValues("row").Inc()
		return nil, fmt.Errorf("short row: %v", record)
	}

	symbol := strings.TrimSpace(record[0])
	if symbol == "" {
		metrics.FieldParseFailures.WithLabelValues("symbol").Inc()
		return nil, fmt.Errorf("missing symbol: %v", record)
	}

	// An unparseable date drops the row; there is nothing to key on.
	date, err := time.Parse("2006-01-02", strings.TrimSpace(record[1]))
	if err != nil {
		metrics.FieldParseFailures.WithLabelValues("date").Inc()
		return nil, fmt.Errorf("bad date %q: %w", record[1], err)
	}

	row := &Row{Symbol: symbol, Date: date}
	row.Open = parsePrice(record[2], "open")
	row.High = parsePrice(record[3], "high")
	row.Low = parsePrice(record[4], "low")
	row.Close = parsePrice(record[5], "close")
	row.Volume = parseQuantity(record[6], "volume")
	row.OpenInterest = parseQuantity(record[7], "open_interest")

	if len(record) > 8 {
		wt := domain.WeekType(strings.TrimSpace(record[8]))
		if wt.Valid() {
			row.WeekType = wt
		}
	}
	return row, nil
}

// parsePrice nulls fields that fail to parse instead of failing the
// row.
func parsePrice(s, field string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		metrics.FieldParseFailures.WithLabelValues(field).Inc()
		return nil
	}
	return &d
}

// parseQuantity defaults missing or bad volumes to zero.
func parseQuantity(s, field string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		metrics.FieldParseFailures.WithLabelValues(field).Inc()
		return decimal.Zero
	}
	return d
}
