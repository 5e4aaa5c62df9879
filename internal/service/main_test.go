package service

import (
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/pkg/logger"
)

func TestMain(m *testing.M) {
	// The package-level logger is normally set up by logger.Init in main;
	// tests need a non-nil logger to avoid panics in code paths that log.
	logger.Log = zap.NewNop()
	logger.Sugar = logger.Log.Sugar()
	os.Exit(m.Run())
}
