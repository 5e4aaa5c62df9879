package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/ingestion"
)

const csvHeader = "symbol,date,open,high,low,close,volume,open_interest\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// A nil loader is safe in these tests: every case fails before any
// rows reach the database.
func newIngestion() *IngestionService {
	return NewIngestionService(ingestion.NewParser(100, 2), nil)
}

func TestProcessFileRejectsUnknownTimeframe(t *testing.T) {
	svc := newIngestion()

	_, err := svc.ProcessFile(context.Background(), "prices.csv", domain.Timeframe("hourly"))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestProcessFileMissingFile(t *testing.T) {
	svc := newIngestion()

	_, err := svc.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), domain.TimeframeDaily)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoData)
}

func TestProcessFileHeaderOnly(t *testing.T) {
	path := writeCSV(t, csvHeader)
	svc := newIngestion()

	_, err := svc.ProcessFile(context.Background(), path, domain.TimeframeDaily)
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestProcessFileAllRowsDropped(t *testing.T) {
	path := writeCSV(t, csvHeader+
		"NIFTY,02/01/2024,21500,21600,21450,21580,1000000,50000\n"+
		",2024-01-03,21580,21700,21550,21650,1200000,52000\n")
	svc := newIngestion()

	_, err := svc.ProcessFile(context.Background(), path, domain.TimeframeDaily)
	require.ErrorIs(t, err, domain.ErrNoData)
	assert.Contains(t, err.Error(), "2 dropped")
}
