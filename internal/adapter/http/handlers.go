package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"assistance-backend/internal/infrastructure/cache"
)

const dateLayout = "2006-01-02"

// Handler serves the operational endpoints.
type Handler struct {
	db  *gorm.DB
	rdb redis.UniversalClient
}

// NewHandler takes the stores /health probes; either may be nil.
func NewHandler(db *gorm.DB, rdb redis.UniversalClient) *Handler {
	return &Handler{db: db, rdb: rdb}
}

// Health reports "ok", or "degraded" with 503 when a store does not answer.
func (h *Handler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{}
	status, code := "ok", http.StatusOK
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		checks["database"] = probe(err)
	}
	if h.rdb != nil {
		checks["redis"] = probe(cache.Ping(ctx, h.rdb))
	}
	for _, v := range checks {
		if v != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	body := map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(checks) > 0 {
		body["checks"] = checks
	}
	return c.JSON(code, body)
}

func probe(err error) string {
	if err != nil {
		return "down"
	}
	return "ok"
}
