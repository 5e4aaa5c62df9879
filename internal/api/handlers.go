package api

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marketlens/seasonality-analyzer/internal/domain"
	"github.com/marketlens/seasonality-analyzer/internal/service"
	"github.com/marketlens/seasonality-analyzer/internal/storage/cache"
	"github.com/marketlens/seasonality-analyzer/internal/storage/postgres"
	"github.com/marketlens/seasonality-analyzer/pkg/logger"
)

type Handler struct {
	db           *postgres.DB
	store        *postgres.PriceStore
	cacheService *cache.RedisCache
	seasonality  *service.SeasonalityService
	ingestion    *service.IngestionService
	validate     *validator.Validate
}

func NewHandler(
	db *postgres.DB,
	store *postgres.PriceStore,
	cacheService *cache.RedisCache,
	seasonality *service.SeasonalityService,
	ingestion *service.IngestionService,
) *Handler {
	return &Handler{
		db:           db,
		store:        store,
		cacheService: cacheService,
		seasonality:  seasonality,
		ingestion:    ingestion,
		validate:     validator.New(),
	}
}

func (h *Handler) Analyze(c *fiber.Ctx) error {
	var body AnalyzeRequestBody
	if err := h.parseBody(c, &body); err != nil {
		return h.badRequest(c, err.Error())
	}

	req, err := body.ToService()
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.seasonality.Analyze(requestContext(c), req)
	if err != nil {
		return h.serviceError(c, "analyze", req.Symbol, err)
	}
	return c.JSON(result)
}

func (h *Handler) Scan(c *fiber.Ctx) error {
	var body ScanRequestBody
	if err := h.parseBody(c, &body); err != nil {
		return h.badRequest(c, err.Error())
	}

	analyzeReq, err := body.ToService()
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.seasonality.Scan(requestContext(c), service.ScanRequest{
		AnalyzeRequest: analyzeReq,
		Criteria:       body.Criteria,
	})
	if err != nil {
		return h.serviceError(c, "scan", analyzeReq.Symbol, err)
	}
	return c.JSON(result)
}

func (h *Handler) Scenario(c *fiber.Ctx) error {
	var body ScenarioRequestBody
	if err := h.parseBody(c, &body); err != nil {
		return h.badRequest(c, err.Error())
	}

	req, err := body.ToService()
	if err != nil {
		return h.badRequest(c, err.Error())
	}

	result, err := h.seasonality.Scenario(requestContext(c), req)
	if err != nil {
		return h.serviceError(c, "scenario", req.Symbol, err)
	}
	return c.JSON(result)
}

func (h *Handler) GetTicker(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if symbol == "" {
		return h.badRequest(c, "symbol is required")
	}

	ticker, err := h.store.ResolveTicker(c.Context(), symbol)
	if err != nil {
		return h.serviceError(c, "ticker", symbol, err)
	}
	return c.JSON(ticker)
}

func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Version:   "1.0.0",
		Timestamp: time.Now(),
	})
}

func (h *Handler) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]ServiceHealth)

	dbStart := time.Now()
	if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = ServiceHealth{Status: "unhealthy", Error: err.Error()}
	} else {
		services["database"] = ServiceHealth{Status: "healthy", Latency: time.Since(dbStart).String()}
	}

	if h.cacheService != nil {
		redisStart := time.Now()
		if err := h.cacheService.HealthCheck(ctx); err != nil {
			services["redis"] = ServiceHealth{Status: "unhealthy", Error: err.Error()}
		} else {
			services["redis"] = ServiceHealth{Status: "healthy", Latency: time.Since(redisStart).String()}
		}
	}

	status := "ready"
	for _, svc := range services {
		if svc.Status != "healthy" {
			status = "not_ready"
			break
		}
	}

	response := HealthResponse{
		Status:    status,
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Services:  services,
	}
	if status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}
	return c.JSON(response)
}

func (h *Handler) InvalidateCache(c *fiber.Ctx) error {
	if h.cacheService == nil {
		return h.badRequest(c, "cache not configured")
	}
	pattern := c.Params("pattern", "seasonality:*")

	if err := h.cacheService.DeletePattern(c.Context(), pattern); err != nil {
		return h.internalError(c, "invalidating cache failed")
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": fmt.Sprintf("cache invalidated for pattern: %s", pattern),
	})
}

func (h *Handler) GetSystemStats(c *fiber.Ctx) error {
	dbStats := h.db.Stats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return c.JSON(SystemStatsResponse{
		Database: DatabaseStats{
			ActiveConnections: dbStats.AcquiredConns(),
			IdleConnections:   dbStats.IdleConns(),
			TotalConnections:  dbStats.TotalConns(),
			WaitCount:         dbStats.EmptyAcquireCount(),
			WaitDuration:      dbStats.AcquireDuration().String(),
		},
		API: APIStats{
			ActiveGoroutines: runtime.NumGoroutine(),
			MemoryUsed:       fmt.Sprintf("%d MB", m.Alloc/1024/1024),
		},
	})
}

func (h *Handler) Ingest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.badRequest(c, err.Error())
	}
	tf := domain.Timeframe(req.Timeframe)

	if req.Async {
		jobID := generateJobID()
		go func() {
			result, err := h.ingestion.ProcessFile(context.Background(), req.FilePath, tf)
			if err != nil {
				logger.Error("async ingest failed",
					zap.String("file", req.FilePath),
					zap.String("job_id", jobID),
					zap.Error(err))
				return
			}
			logger.Info("async ingest finished",
				zap.String("file", req.FilePath),
				zap.String("job_id", jobID),
				zap.Int64("rows", result.RecordsCount),
				zap.Int("dropped", result.DroppedRows))
		}()

		return c.JSON(IngestResponse{
			JobID:   jobID,
			Status:  "processing",
			Message: "ingestion started",
		})
	}

	result, err := h.ingestion.ProcessFile(c.Context(), req.FilePath, tf)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) || service.IsInvalidConfig(err) {
			return h.badRequest(c, err.Error())
		}
		return h.internalError(c, "ingestion failed")
	}
	return c.JSON(IngestResponse{
		RecordsCount: result.RecordsCount,
		DroppedRows:  result.DroppedRows,
		Status:       "completed",
		Message:      "file processed",
	})
}

func (h *Handler) parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := h.validate.Struct(dest); err != nil {
		return err
	}
	return nil
}

// serviceError maps pipeline failures onto status codes: unknown
// ticker 404, nonsensical configuration 400, everything else 500.
// An empty result is not an error and never lands here.
func (h *Handler) serviceError(c *fiber.Ctx, operation, symbol string, err error) error {
	switch {
	case service.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:     fmt.Sprintf("ticker %s not found", symbol),
			Code:      fiber.StatusNotFound,
			RequestID: getRequestID(c),
			Timestamp: time.Now(),
		})
	case service.IsInvalidConfig(err):
		return h.badRequest(c, err.Error())
	}

	logger.Error("request failed",
		zap.String("operation", operation),
		zap.String("symbol", symbol),
		zap.String("request_id", getRequestID(c)),
		zap.Error(err))
	return h.internalError(c, fmt.Sprintf("%s failed", operation))
}

func (h *Handler) badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:     msg,
		Code:      fiber.StatusBadRequest,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

func (h *Handler) internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:     msg,
		Code:      fiber.StatusInternalServerError,
		RequestID: getRequestID(c),
		Timestamp: time.Now(),
	})
}

// requestContext returns the request-scoped context populated by the
// RequestID middleware, so log lines emitted downstream carry the ID.
func requestContext(c *fiber.Ctx) context.Context {
	return c.UserContext()
}

func getRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestID").(string); ok {
		return id
	}
	return ""
}

func generateJobID() string {
	return fmt.Sprintf("job_%d_%s", time.Now().Unix(), randomString(8))
}
