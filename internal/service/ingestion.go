package service

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/ingestion"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
)

type IngestionService struct {
	parser *ingestion.Parser
	loader *ingestion.BulkLoader
}

func NewIngestionService(parser *ingestion.Parser, loader *ingestion.BulkLoader) *IngestionService {
	return &IngestionService{parser: parser, loader: loader}
}

type ProcessFileResult struct {
	FilePath     string
	RecordsCount int64
	DroppedRows  int
	FieldErrors  int
}

// ProcessFile parses one OHLCV CSV and loads the surviving rows into
// the table for the given timeframe. Row-level failures do not abort
// the file; they are counted and reported.
func (s *IngestionService) ProcessFile(ctx context.Context, filePath string, tf domain.Timeframe) (*ProcessFileResult, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("%w: unknown timeframe %q", domain.ErrInvalidConfig, string(tf))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer file.Close()

	parsed, err := s.parser.ParseFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	if len(parsed.Rows) == 0 {
		return nil, fmt.Errorf("%w: no loadable rows in %s (%d dropped)", domain.ErrNoData, filePath, parsed.Dropped)
	}

	count, err := s.loader.LoadRows(ctx, tf, parsed.Rows)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", filePath, err)
	}

	logger.Info("file processed",
		zap.String("file", filePath),
		zap.String("timeframe", string(tf)),
		zap.Int64("rows", count),
		zap.Int("dropped", parsed.Dropped))

	return &ProcessFileResult{
		FilePath:     filePath,
		RecordsCount: count,
		DroppedRows:  parsed.Dropped,
		FieldErrors:  len(parsed.Errors),
	}, nil
}
