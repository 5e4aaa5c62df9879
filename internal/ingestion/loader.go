package ingestion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

var loadTables = map[domain.Timeframe]string{
	domain.TimeframeDaily:   "daily_prices",
	domain.TimeframeWeekly:  "weekly_prices",
	domain.TimeframeMonthly: "monthly_prices",
	domain.TimeframeYearly:  "yearly_prices",
}

// BulkLoader writes parsed rows into a price table with CopyFrom,
// registering unseen symbols in the ticker directory first.
type BulkLoader struct {
	pool      *pgxpool.Pool
	batchSize int
}

func NewBulkLoader(pool *pgxpool.Pool, batchSize int) *BulkLoader {
	return &BulkLoader{pool: pool, batchSize: batchSize}
}

func (l *BulkLoader) LoadRows(ctx context.Context, tf domain.Timeframe, rows []Row) (int64, error) {
	table, ok := loadTables[tf]
	if !ok {
		return 0, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidConfig, string(tf))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids, err := l.resolveSymbols(ctx, rows)
	if err != nil {
		return 0, err
	}

	columns := []string{"ticker_id", "date", "open", "high", "low", "close", "volume", "open_interest"}
	if tf == domain.TimeframeWeekly {
		columns = append(columns, "week_type")
	}

	source := pgx.CopyFromSlice(len(rows), func(i int) ([]interface{}, error) {
		r := rows[i]
		values := []interface{}{
			ids[r.Symbol], r.Date, r.Open, r.High, r.Low, r.Close, r.Volume, r.OpenInterest,
		}
		if tf == domain.TimeframeWeekly {
			wt := r.WeekType
			if wt == "" {
				wt = domain.WeekTypeMonday
			}
			values = append(values, string(wt))
		}
		return values, nil
	})

	count, err := l.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, source)
	if err != nil {
		metrics.RowsIngested.WithLabelValues("error").Add(float64(len(rows)))
		return 0, fmt.Errorf("copying into %s: %w", table, err)
	}

	metrics.RowsIngested.WithLabelValues("success").Add(float64(count))
	logger.Info("rows loaded",
		zap.String("table", table),
		zap.Int64("rows", count))
	return count, nil
}

// resolveSymbols upserts the distinct symbols and returns their IDs.
func (l *BulkLoader) resolveSymbols(ctx context.Context, rows []Row) (map[string]int64, error) {
	distinct := map[string]struct{}{}
	for i := range rows {
		distinct[rows[i].Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(distinct))
	for s := range distinct {
		symbols = append(symbols, s)
	}

	_, err := l.pool.Exec(ctx, `
        INSERT INTO tickers (symbol)
        SELECT UNNEST($1::text[])
        ON CONFLICT (symbol) DO NOTHING
    `, symbols)
	if err != nil {
		return nil, fmt.Errorf("registering symbols: %w", err)
	}

	result, err := l.pool.Query(ctx,
		`SELECT id, symbol FROM tickers WHERE symbol = ANY($1)`, symbols)
	if err != nil {
		return nil, fmt.Errorf("resolving symbols: %w", err)
	}
	defer result.Close()

	ids := make(map[string]int64, len(symbols))
	for result.Next() {
		var id int64
		var symbol string
		if err := result.Scan(&id, &symbol); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		ids[symbol] = id
	}
	return ids, result.Err()
}
