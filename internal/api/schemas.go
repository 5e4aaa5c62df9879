package api

import (
	"fmt"
	"time"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/scanner"
	"github.com/marketlens/seasonality-analyzer/internal/service"
)

// AnalyzeRequestBody is the transport shape of an analysis call.
// Dates use YYYY-MM-DD.
type AnalyzeRequestBody struct {
	Symbol         string               `json:"symbol" validate:"required"`
	Timeframe      string               `json:"timeframe" validate:"omitempty,oneof=daily weekly monthly yearly"`
	StartDate      string               `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string               `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	LastNDays      int                  `json:"last_n_days" validate:"omitempty,min=1"`
	Filters        *domain.FilterConfig `json:"filters"`
	WeekType       string               `json:"week_type" validate:"omitempty,oneof=monday expiry"`
	GroupBy        string               `json:"group_by"`
	AggregateType  string               `json:"aggregate_type" validate:"omitempty,oneof=total avg max min"`
	AggregateField string               `json:"aggregate_field"`
}

func (b *AnalyzeRequestBody) ToService() (service.AnalyzeRequest, error) {
	req := service.AnalyzeRequest{
		Symbol:         b.Symbol,
		Timeframe:      domain.Timeframe(b.Timeframe),
		LastNDays:      b.LastNDays,
		Filters:        b.Filters,
		WeekType:       domain.WeekType(b.WeekType),
		GroupBy:        b.GroupBy,
		AggregateType:  b.AggregateType,
		AggregateField: b.AggregateField,
	}
	var err error
	if req.StartDate, err = parseDate(b.StartDate); err != nil {
		return req, err
	}
	if req.EndDate, err = parseDate(b.EndDate); err != nil {
		return req, err
	}
	return req, nil
}

type ScanRequestBody struct {
	AnalyzeRequestBody
	Criteria scanner.Options `json:"criteria"`
}

type ScenarioRequestBody struct {
	Symbol    string               `json:"symbol" validate:"required"`
	StartDate string               `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string               `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	LastNDays int                  `json:"last_n_days" validate:"omitempty,min=1"`
	Filters   *domain.FilterConfig `json:"filters"`
	EntryDay  string               `json:"entry_day" validate:"required"`
	ExitDay   string               `json:"exit_day" validate:"required"`
}

func (b *ScenarioRequestBody) ToService() (service.ScenarioRequest, error) {
	req := service.ScenarioRequest{
		Symbol:    b.Symbol,
		LastNDays: b.LastNDays,
		Filters:   b.Filters,
		EntryDay:  b.EntryDay,
		ExitDay:   b.ExitDay,
	}
	var err error
	if req.StartDate, err = parseDate(b.StartDate); err != nil {
		return req, err
	}
	if req.EndDate, err = parseDate(b.EndDate); err != nil {
		return req, err
	}
	return req, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return &t, nil
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type IngestRequest struct {
	FilePath  string `json:"file_path" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required,oneof=daily weekly monthly yearly"`
	Async     bool   `json:"async"`
}

type IngestResponse struct {
	JobID        string `json:"job_id,omitempty"`
	RecordsCount int64  `json:"records_count,omitempty"`
	DroppedRows  int    `json:"dropped_rows,omitempty"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

type SystemStatsResponse struct {
	Database DatabaseStats `json:"database"`
	API      APIStats      `json:"api"`
}

type DatabaseStats struct {
	ActiveConnections int32  `json:"active_connections"`
	IdleConnections   int32  `json:"idle_connections"`
	TotalConnections  int32  `json:"total_connections"`
	WaitCount         int64  `json:"wait_count"`
	WaitDuration      string `json:"wait_duration"`
}

type APIStats struct {
	ActiveGoroutines int    `json:"active_goroutines"`
	MemoryUsed       string `json:"memory_used"`
}
