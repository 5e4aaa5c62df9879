package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/filter"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// priceTables maps each timeframe to its backing table. The schemas
// are not identical: weekly tables carry the week-type discriminator
// and week-of-month, yearly tables persist the period sign.
var priceTables = map[domain.Timeframe]string{
	domain.TimeframeDaily:   "daily_prices",
	domain.TimeframeWeekly:  "weekly_prices",
	domain.TimeframeMonthly: "monthly_prices",
	domain.TimeframeYearly:  "yearly_prices",
}

// pushableColumns advertises which derived columns each table
// persists; the filter planner consults this before deciding where a
// predicate runs.
var pushableColumns = map[domain.Timeframe]map[string]bool{
	domain.TimeframeDaily: {
		filter.ColWeekday: true,
		filter.ColMonth:   true,
		filter.ColYear:    true,
	},
	domain.TimeframeWeekly: {
		filter.ColWeekType:    true,
		filter.ColWeekOfMonth: true,
		filter.ColMonth:       true,
		filter.ColYear:        true,
	},
	domain.TimeframeMonthly: {
		filter.ColMonth: true,
		filter.ColYear:  true,
	},
	domain.TimeframeYearly: {
		filter.ColYear:     true,
		filter.ColPositive: true,
	},
}

// PriceStore reads OHLCV series and resolves tickers.
type PriceStore struct {
	pool *pgxpool.Pool
}

func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// CanPush implements filter.StoreCapabilities.
func (s *PriceStore) CanPush(tf domain.Timeframe, column string) bool {
	return pushableColumns[tf][column]
}

// RecordQuery narrows a fetch: an explicit date range, or the trailing
// LastNDays window when positive, plus any pushed-down predicates.
type RecordQuery struct {
	StartDate  *time.Time
	EndDate    *time.Time
	LastNDays  int
	Predicates []filter.StorePredicate
}

// FetchRecords returns the ticker's rows for one timeframe, ascending
// by date, with the store-level predicates already applied.
func (s *PriceStore) FetchRecords(ctx context.Context, tickerID int64, tf domain.Timeframe, q RecordQuery) ([]domain.PricePeriodRecord, error) {
	table, ok := priceTables[tf]
	if !ok {
		return nil, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidConfig, string(tf))
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StoreQueryDuration.WithLabelValues(string(tf)))

	weekTypeCol := "NULL"
	if tf == domain.TimeframeWeekly {
		weekTypeCol = "week_type"
	}

	query := fmt.Sprintf(`
        SELECT
            ticker_id,
            date,
            open,
            high,
            low,
            close,
            volume,
            open_interest,
            %s
        FROM %s
        WHERE ticker_id = $1
    `, weekTypeCol, table)

	args := []interface{}{tickerID}
	argCount := 1

	if q.LastNDays > 0 {
		query += fmt.Sprintf(" AND date >= CURRENT_DATE - INTERVAL '%d days'", q.LastNDays)
	} else {
		if q.StartDate != nil {
			argCount++
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, *q.StartDate)
		}
		if q.EndDate != nil {
			argCount++
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, *q.EndDate)
		}
	}

	for _, pred := range q.Predicates {
		if !s.CanPush(tf, pred.Column) {
			return nil, fmt.Errorf("predicate on %s not pushable for %s", pred.Column, tf)
		}
		argCount++
		if pred.Op == filter.OpIn {
			query += fmt.Sprintf(" AND %s = ANY($%d)", pred.Column, argCount)
		} else {
			query += fmt.Sprintf(" AND %s %s $%d", pred.Column, pred.Op, argCount)
		}
		args = append(args, pred.Value)
	}

	query += " ORDER BY date ASC"

	logger.Debug("fetching price records",
		zap.Int64("ticker_id", tickerID),
		zap.String("timeframe", string(tf)),
		zap.Int("predicates", len(q.Predicates)))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.StoreQueries.WithLabelValues(string(tf), "error").Inc()
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	var records []domain.PricePeriodRecord
	for rows.Next() {
		var r domain.PricePeriodRecord
		var volume, openInterest *decimal.Decimal
		var weekType *string

		err := rows.Scan(
			&r.TickerID,
			&r.Date,
			&r.Open,
			&r.High,
			&r.Low,
			&r.Close,
			&volume,
			&openInterest,
			&weekType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}

		// Missing volume and open interest default to zero.
		if volume != nil {
			r.Volume = *volume
		}
		if openInterest != nil {
			r.OpenInterest = *openInterest
		}
		if weekType != nil {
			r.WeekType = domain.WeekType(*weekType)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		metrics.StoreQueries.WithLabelValues(string(tf), "error").Inc()
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}

	metrics.StoreQueries.WithLabelValues(string(tf), "success").Inc()
	return records, nil
}

// ResolveTicker looks a symbol up in the ticker directory.
func (s *PriceStore) ResolveTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	var t domain.Ticker
	err := s.pool.QueryRow(ctx,
		`SELECT id, symbol, COALESCE(name, '') FROM tickers WHERE symbol = $1`,
		symbol,
	).Scan(&t.ID, &t.Symbol, &t.Name)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTickerNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving ticker %s: %w", symbol, err)
	}
	return &t, nil
}

// ListTickers returns the directory, for the CLI listing command.
func (s *PriceStore) ListTickers(ctx context.Context, limit int) ([]domain.Ticker, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, symbol, COALESCE(name, '') FROM tickers ORDER BY symbol LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing tickers: %w", err)
	}
	defer rows.Close()

	var tickers []domain.Ticker
	for rows.Next() {
		var t domain.Ticker
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
