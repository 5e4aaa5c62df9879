package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketlens/seasonality-analyzer/internal/calendar"
	"github.com/marketlens/seasonality-analyzer/internal/config"
	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/ingestion"
	"github.com/marketlens/seasonality-analyzer/internal/refdata"
	"github.com/marketlens/seasonality-analyzer/internal/scanner"
	"github.com/marketlens/seasonality-analyzer/internal/service"
	"github.com/marketlens/seasonality-analyzer/internal/storage/postgres"
	pkglogger "github.com/marketlens/seasonality-analyzer/pkg/logger"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "seasonality-analyzer",
		Short: "Calendar seasonality analytics CLI",
		Long: `CLI for the seasonality analyzer.
Loads OHLCV CSV files and runs seasonality analysis and trend scans
against the price store.`,
	}

	var ingestCmd = &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Load OHLCV CSV files into the price store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeframe, _ := cmd.Flags().GetString("timeframe")
			workers, _ := cmd.Flags().GetInt("workers")
			return runIngest(args, domain.Timeframe(timeframe), workers)
		},
	}
	ingestCmd.Flags().StringP("timeframe", "t", "daily", "Target timeframe (daily|weekly|monthly|yearly)")
	ingestCmd.Flags().IntP("workers", "w", 4, "Concurrent files")

	var analyzeCmd = &cobra.Command{
		Use:   "analyze [symbol]",
		Short: "Run a seasonality analysis for one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeframe, _ := cmd.Flags().GetString("timeframe")
			start, _ := cmd.Flags().GetString("start")
			end, _ := cmd.Flags().GetString("end")
			groupBy, _ := cmd.Flags().GetString("group-by")
			return runAnalyze(args[0], timeframe, start, end, groupBy)
		},
	}
	analyzeCmd.Flags().StringP("timeframe", "t", "daily", "Timeframe")
	analyzeCmd.Flags().StringP("start", "s", "", "Start date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringP("end", "e", "", "End date (YYYY-MM-DD)")
	analyzeCmd.Flags().StringP("group-by", "g", "weekday", "Grouping dimension")

	var scanCmd = &cobra.Command{
		Use:   "scan [symbol]",
		Short: "Scan grouped statistics for consecutive trends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeframe, _ := cmd.Flags().GetString("timeframe")
			groupBy, _ := cmd.Flags().GetString("group-by")
			trend, _ := cmd.Flags().GetString("trend")
			days, _ := cmd.Flags().GetInt("days")
			return runScan(args[0], timeframe, groupBy, trend, days)
		},
	}
	scanCmd.Flags().StringP("timeframe", "t", "daily", "Timeframe")
	scanCmd.Flags().StringP("group-by", "g", "trading_day_month", "Grouping dimension")
	scanCmd.Flags().String("trend", "Bullish", "Trend direction (Bullish|Bearish)")
	scanCmd.Flags().IntP("days", "n", 3, "Consecutive periods per window")

	var tickersCmd = &cobra.Command{
		Use:   "tickers",
		Short: "List known tickers",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return runTickers(limit)
		},
	}
	tickersCmd.Flags().IntP("limit", "l", 50, "Maximum tickers to list")

	rootCmd.AddCommand(ingestCmd, analyzeCmd, scanCmd, tickersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *postgres.DB, error) {
	cfg := config.Load()
	if err := pkglogger.Init("warn", false); err != nil {
		return nil, nil, err
	}
	db, err := postgres.NewDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return cfg, db, nil
}

func newSeasonalityService(cfg *config.Config, db *postgres.DB) (*service.SeasonalityService, error) {
	elections, ok := refdata.ElectionYears(cfg.ElectionCategory, cfg.ElectionCountry)
	if !ok {
		return nil, fmt.Errorf("no election table for %s/%s", cfg.ElectionCategory, cfg.ElectionCountry)
	}
	store := postgres.NewPriceStore(db.Pool())
	enricher := calendar.NewEnricher(elections)
	pool := service.NewComputePool(cfg.ComputeWorkers)
	return service.NewSeasonalityService(store, nil, enricher, pool), nil
}

func runIngest(files []string, tf domain.Timeframe, workers int) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	parser := ingestion.NewParser(cfg.BatchSize, cfg.IngestWorkers)
	loader := ingestion.NewBulkLoader(db.Pool(), cfg.BatchSize)
	pool := ingestion.NewWorkerPool(workers, parser, loader)

	ctx := context.Background()
	pool.Start(ctx)

	results := make(chan ingestion.JobResult, len(files))
	for _, file := range files {
		pool.Submit(ingestion.Job{
			FilePath:  filepath.Clean(file),
			Timeframe: tf,
			Result:    results,
		})
	}

	var failed int
	for range files {
		r := <-results
		if r.Error != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", r.FilePath, r.Error)
			continue
		}
		fmt.Printf("OK   %s: %d rows loaded, %d dropped\n", r.FilePath, r.RecordsCount, r.DroppedRows)
	}
	pool.Stop()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func runAnalyze(symbol, timeframe, start, end, groupBy string) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := newSeasonalityService(cfg, db)
	if err != nil {
		return err
	}

	req := service.AnalyzeRequest{
		Symbol:    symbol,
		Timeframe: domain.Timeframe(timeframe),
		GroupBy:   groupBy,
	}
	if req.StartDate, err = parseDateFlag(start); err != nil {
		return err
	}
	if req.EndDate, err = parseDateFlag(end); err != nil {
		return err
	}

	result, err := svc.Analyze(context.Background(), req)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runScan(symbol, timeframe, groupBy, trend string, days int) error {
	cfg, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := newSeasonalityService(cfg, db)
	if err != nil {
		return err
	}

	result, err := svc.Scan(context.Background(), service.ScanRequest{
		AnalyzeRequest: service.AnalyzeRequest{
			Symbol:    symbol,
			Timeframe: domain.Timeframe(timeframe),
			GroupBy:   groupBy,
		},
		Criteria: scanner.Options{
			TrendType:       scanner.TrendType(trend),
			ConsecutiveDays: days,
		},
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runTickers(limit int) error {
	_, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewPriceStore(db.Pool())
	tickers, err := store.ListTickers(context.Background(), limit)
	if err != nil {
		return err
	}
	for _, t := range tickers {
		fmt.Printf("%-12s %s\n", t.Symbol, t.Name)
	}
	return nil
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return &t, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
