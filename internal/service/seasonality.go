package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/calendar"
	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/filter"
	"github.com/marketlens/seasonality-analyzer/internal/returns"
	"github.com/marketlens/seasonality-analyzer/internal/scanner"
	"github.com/marketlens/seasonality-analyzer/internal/stats"
	"github.com/marketlens/seasonality-analyzer/internal/storage/cache"
	"github.com/marketlens/seasonality-analyzer/internal/storage/postgres"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// RecordStore is what the analysis pipeline needs from persistence:
// ticker resolution, row fetching with pushed-down predicates, and the
// pushdown capability report the filter planner consults.
type RecordStore interface {
	filter.StoreCapabilities
	ResolveTicker(ctx context.Context, symbol string) (*domain.Ticker, error)
	FetchRecords(ctx context.Context, tickerID int64, tf domain.Timeframe, q postgres.RecordQuery) ([]domain.PricePeriodRecord, error)
}

// ResultCache memoizes final results. Advisory: failures are logged
// and ignored.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl ...time.Duration) error
}

// AnalyzeRequest is the full parameter set of one analysis; its JSON
// form is also the cache key input.
type AnalyzeRequest struct {
	Symbol         string               `json:"symbol"`
	Timeframe      domain.Timeframe     `json:"timeframe"`
	StartDate      *time.Time           `json:"start_date,omitempty"`
	EndDate        *time.Time           `json:"end_date,omitempty"`
	LastNDays      int                  `json:"last_n_days,omitempty"`
	Filters        *domain.FilterConfig `json:"filters,omitempty"`
	WeekType       domain.WeekType      `json:"week_type,omitempty"`
	GroupBy        string               `json:"group_by,omitempty"`
	AggregateType  string               `json:"aggregate_type,omitempty"`
	AggregateField string               `json:"aggregate_field,omitempty"`
}

type Meta struct {
	RecordsAnalyzed  int   `json:"records_analyzed"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// RecordRow is one per-record line of the display table.
type RecordRow struct {
	Date             string `json:"date"`
	Weekday          string `json:"weekday"`
	Close            string `json:"close,omitempty"`
	ReturnPoints     string `json:"return_points,omitempty"`
	ReturnPercentage string `json:"return_percentage,omitempty"`
	TradingDayMonth  int    `json:"trading_day_month"`
	TradingDayYear   int    `json:"trading_day_year"`
	Positive         bool   `json:"positive"`
	Negative         bool   `json:"negative"`
}

type AnalyzeResult struct {
	Symbol         string                   `json:"symbol"`
	Statistics     domain.Statistics        `json:"statistics"`
	ChartData      []domain.CumulativePoint `json:"chart_data"`
	TableData      []RecordRow              `json:"table_data"`
	DataTable      []stats.DisplayRow       `json:"data_table,omitempty"`
	MaxConsecutive *domain.MaxConsecutive   `json:"max_consecutive,omitempty"`
	AggregateValue *float64                 `json:"aggregate_value,omitempty"`
	Meta           Meta                     `json:"meta"`
}

type ScanRequest struct {
	AnalyzeRequest
	Criteria scanner.Options `json:"criteria"`
}

type ScanResult struct {
	Symbol  string                `json:"symbol"`
	Matches []domain.ScannerMatch `json:"matches"`
	Meta    Meta                  `json:"meta"`
}

// SeasonalityService runs the whole pipeline: resolve, plan, fetch,
// enrich, compute returns, filter, aggregate, scan.
type SeasonalityService struct {
	store    RecordStore
	cache    ResultCache
	enricher *calendar.Enricher
	pool     *ComputePool
}

func NewSeasonalityService(store RecordStore, resultCache ResultCache, enricher *calendar.Enricher, pool *ComputePool) *SeasonalityService {
	return &SeasonalityService{
		store:    store,
		cache:    resultCache,
		enricher: enricher,
		pool:     pool,
	}
}

func (s *SeasonalityService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if err := validateRequest(&req.Symbol, &req.Timeframe); err != nil {
		return nil, err
	}

	key := cache.Key("seasonality:analyze", req)
	if s.cache != nil {
		var cached AnalyzeResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			metrics.RecordCacheHit()
			metrics.RecordAnalysisRequest("analyze", true)
			return &cached, nil
		}
		metrics.RecordCacheMiss()
	}

	start := time.Now()
	var result *AnalyzeResult
	err := s.pool.Do(ctx, func() error {
		var err error
		result, err = s.analyze(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Meta.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.RecordAnalysisRequest("analyze", false)
	metrics.AnalysisDuration.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	metrics.RecordsAnalyzed.Observe(float64(result.Meta.RecordsAnalyzed))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			logger.Warn("caching analysis result failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *SeasonalityService) analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	records, err := s.loadRecords(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{
		Symbol:    req.Symbol,
		ChartData: []domain.CumulativePoint{},
		TableData: []RecordRow{},
		Meta:      Meta{RecordsAnalyzed: len(records)},
	}
	if len(records) == 0 {
		// Zero matches is a valid outcome with a zeroed payload, so
		// callers branch on record count instead of catching errors.
		return result, nil
	}

	values, distinctYears := stats.Returns(records)
	result.Statistics = stats.CalculateExtended(values, distinctYears)
	result.ChartData = returns.Series(records, 100)
	result.TableData = recordRows(records)

	keyFn, err := stats.GroupKey(req.GroupBy)
	if err != nil {
		return nil, err
	}
	result.DataTable = stats.DisplayTable(stats.Group(records, keyFn))

	mc := stats.MaxConsecutive(values)
	result.MaxConsecutive = &mc

	if req.AggregateType != "" || req.AggregateField != "" {
		agg, err := stats.Aggregate(records, req.AggregateType, req.AggregateField)
		if err != nil {
			return nil, err
		}
		result.AggregateValue = &agg
	}
	return result, nil
}

func (s *SeasonalityService) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if err := validateRequest(&req.Symbol, &req.Timeframe); err != nil {
		return nil, err
	}

	key := cache.Key("seasonality:scan", req)
	if s.cache != nil {
		var cached ScanResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			metrics.RecordCacheHit()
			metrics.RecordAnalysisRequest("scan", true)
			return &cached, nil
		}
		metrics.RecordCacheMiss()
	}

	start := time.Now()
	var result *ScanResult
	err := s.pool.Do(ctx, func() error {
		var err error
		result, err = s.scan(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Meta.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.RecordAnalysisRequest("scan", false)
	metrics.AnalysisDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			logger.Warn("caching scan result failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *SeasonalityService) scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	records, err := s.loadRecords(ctx, req.AnalyzeRequest)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{
		Symbol:  req.Symbol,
		Matches: []domain.ScannerMatch{},
		Meta:    Meta{RecordsAnalyzed: len(records)},
	}
	if len(records) == 0 {
		return result, nil
	}

	keyFn, err := stats.GroupKey(req.GroupBy)
	if err != nil {
		return nil, err
	}
	grouped := stats.Group(records, keyFn)

	matches, err := scanner.Scan(grouped, req.Criteria)
	if err != nil {
		return nil, err
	}
	if matches != nil {
		result.Matches = matches
	}
	return result, nil
}

// loadRecords runs the shared front half of the pipeline: plan the
// filters against the store's pushdown capabilities, fetch, enrich,
// compute returns, then apply the residual predicates.
func (s *SeasonalityService) loadRecords(ctx context.Context, req AnalyzeRequest) ([]domain.PricePeriodRecord, error) {
	ticker, err := s.store.ResolveTicker(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	plan, err := filter.NewPlan(req.Filters, req.Timeframe, req.WeekType, s.store)
	if err != nil {
		return nil, err
	}

	timer := metrics.NewTimer()
	records, err := s.store.FetchRecords(ctx, ticker.ID, req.Timeframe, postgres.RecordQuery{
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		LastNDays:  req.LastNDays,
		Predicates: plan.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching records for %s: %w", req.Symbol, err)
	}

	enriched := s.enricher.Enrich(records)
	computed := returns.Compute(enriched)
	filtered := plan.Apply(computed)

	logger.WithContext(ctx).Debug("records loaded",
		zap.String("symbol", req.Symbol),
		zap.String("timeframe", string(req.Timeframe)),
		zap.Int("fetched", len(records)),
		zap.Int("after_filters", len(filtered)),
		zap.Duration("elapsed", timer.Elapsed()))

	return filtered, nil
}

func validateRequest(symbol *string, tf *domain.Timeframe) error {
	if *symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidConfig)
	}
	if *tf == "" {
		*tf = domain.TimeframeDaily
	}
	if !tf.Valid() {
		return fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidConfig, string(*tf))
	}
	return nil
}

func recordRows(records []domain.PricePeriodRecord) []RecordRow {
	rows := make([]RecordRow, 0, len(records))
	for i := range records {
		r := &records[i]
		row := RecordRow{
			Date:            r.Date.Format("2006-01-02"),
			Weekday:         r.Weekday,
			TradingDayMonth: r.TradingDayMonth,
			TradingDayYear:  r.TradingDayYear,
			Positive:        r.Positive,
			Negative:        r.Negative,
		}
		if r.Close != nil {
			row.Close = r.Close.StringFixed(2)
		}
		if r.ReturnPoints != nil {
			row.ReturnPoints = r.ReturnPoints.StringFixed(2)
		}
		if r.ReturnPercentage != nil {
			row.ReturnPercentage = r.ReturnPercentage.StringFixed(2)
		}
		rows = append(rows, row)
	}
	return rows
}

// IsNotFound reports whether err is the unknown-ticker failure, for
// handlers mapping errors to status codes.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrTickerNotFound)
}

// IsInvalidConfig reports whether err is a request validation failure.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, domain.ErrInvalidConfig)
}
