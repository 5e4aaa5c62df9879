package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/stats"
	"github.com/marketlens/seasonality-analyzer/internal/storage/cache"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
	"github.com/marketlens/seasonality-analyzer/pkg/metrics"
)

// ScenarioRequest simulates entering every week on one weekday and
// exiting on another over a daily series.
type ScenarioRequest struct {
	Symbol    string               `json:"symbol"`
	StartDate *time.Time           `json:"start_date,omitempty"`
	EndDate   *time.Time           `json:"end_date,omitempty"`
	LastNDays int                  `json:"last_n_days,omitempty"`
	Filters   *domain.FilterConfig `json:"filters,omitempty"`
	EntryDay  string               `json:"entry_day"`
	ExitDay   string               `json:"exit_day"`
}

type ScenarioTrade struct {
	EntryDate  string  `json:"entry_date"`
	ExitDate   string  `json:"exit_date"`
	EntryClose string  `json:"entry_close"`
	ExitClose  string  `json:"exit_close"`
	ReturnPct  float64 `json:"return_pct"`
}

type ScenarioResult struct {
	Symbol       string            `json:"symbol"`
	EntryDay     string            `json:"entry_day"`
	ExitDay      string            `json:"exit_day"`
	ExpectedDiff int               `json:"expected_diff"`
	Trades       []ScenarioTrade   `json:"trades"`
	Statistics   domain.Statistics `json:"statistics"`
	Meta         Meta              `json:"meta"`
}

var weekdayNumbers = map[string]int{
	"Monday": 1, "Tuesday": 2, "Wednesday": 3, "Thursday": 4,
	"Friday": 5, "Saturday": 6, "Sunday": 7,
}

// Scenario matches entry/exit weekday pairs across the series. A trade
// is recorded only when the calendar gap between the matched records
// equals the expected day distance exactly; holiday-shortened weeks
// are skipped rather than approximated.
func (s *SeasonalityService) Scenario(ctx context.Context, req ScenarioRequest) (*ScenarioResult, error) {
	entryNum, ok := weekdayNumbers[req.EntryDay]
	if !ok {
		return nil, fmt.Errorf("%w: unknown entry day %q", domain.ErrInvalidConfig, req.EntryDay)
	}
	exitNum, ok := weekdayNumbers[req.ExitDay]
	if !ok {
		return nil, fmt.Errorf("%w: unknown exit day %q", domain.ErrInvalidConfig, req.ExitDay)
	}
	if req.EntryDay == req.ExitDay {
		return nil, fmt.Errorf("%w: entry and exit day must differ", domain.ErrInvalidConfig)
	}
	expectedDiff := (exitNum - entryNum + 7) % 7

	key := cache.Key("seasonality:scenario", req)
	if s.cache != nil {
		var cached ScenarioResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			metrics.RecordCacheHit()
			metrics.RecordAnalysisRequest("scenario", true)
			return &cached, nil
		}
		metrics.RecordCacheMiss()
	}

	start := time.Now()
	var result *ScenarioResult
	err := s.pool.Do(ctx, func() error {
		records, err := s.loadRecords(ctx, AnalyzeRequest{
			Symbol:    req.Symbol,
			Timeframe: domain.TimeframeDaily,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			LastNDays: req.LastNDays,
			Filters:   req.Filters,
		})
		if err != nil {
			return err
		}
		result = buildScenario(req, expectedDiff, records)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Meta.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.RecordAnalysisRequest("scenario", false)
	metrics.AnalysisDuration.WithLabelValues("scenario").Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			logger.Warn("caching scenario result failed", zap.Error(err))
		}
	}
	return result, nil
}

func buildScenario(req ScenarioRequest, expectedDiff int, records []domain.PricePeriodRecord) *ScenarioResult {
	result := &ScenarioResult{
		Symbol:       req.Symbol,
		EntryDay:     req.EntryDay,
		ExitDay:      req.ExitDay,
		ExpectedDiff: expectedDiff,
		Trades:       []ScenarioTrade{},
		Meta:         Meta{RecordsAnalyzed: len(records)},
	}

	var tradeReturns []float64
	for i := 0; i < len(records); i++ {
		entry := &records[i]
		if entry.Weekday != req.EntryDay || entry.Close == nil {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			exit := &records[j]
			gap := int(exit.Date.Sub(entry.Date).Hours() / 24)
			if gap > expectedDiff {
				break
			}
			if exit.Weekday != req.ExitDay || exit.Close == nil {
				continue
			}
			if gap != expectedDiff {
				break
			}
			if entry.Close.IsZero() {
				break
			}
			pct := exit.Close.Sub(*entry.Close).Div(*entry.Close).InexactFloat64() * 100
			result.Trades = append(result.Trades, ScenarioTrade{
				EntryDate:  entry.Date.Format("2006-01-02"),
				ExitDate:   exit.Date.Format("2006-01-02"),
				EntryClose: entry.Close.StringFixed(2),
				ExitClose:  exit.Close.StringFixed(2),
				ReturnPct:  pct,
			})
			tradeReturns = append(tradeReturns, pct)
			break
		}
	}

	result.Statistics = stats.Calculate(tradeReturns)
	return result
}
