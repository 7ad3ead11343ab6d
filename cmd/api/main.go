package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	httpadp "assistance-backend/internal/adapter/http"
	idemp "assistance-backend/internal/adapter/middleware"
	"assistance-backend/internal/adapter/repository/gormrepo"
	"assistance-backend/internal/config"
	"assistance-backend/internal/domain/catalog"
	"assistance-backend/internal/infrastructure/cache"
	"assistance-backend/internal/infrastructure/db"
	"assistance-backend/internal/infrastructure/logger"
	"assistance-backend/internal/infrastructure/metrics"
	"assistance-backend/internal/usecase/assistance"
	audittrail "assistance-backend/internal/usecase/audit"
	"assistance-backend/internal/usecase/beneficiary"
	"assistance-backend/internal/usecase/campaign"
	equipmentuc "assistance-backend/internal/usecase/equipment"
	"assistance-backend/internal/usecase/retry"
	"assistance-backend/pkg/clock"
)

func main() {
	boot := logger.New("info")
	cfg, err := config.Load()
	if err != nil {
		fail(boot, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fail(boot, "invalid config", err)
	}
	lg := logger.New(cfg.LogLevel)

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), cfg.DBDebug)
	if err != nil {
		fail(lg, "open database", err)
	}
	if err := gormrepo.AutoMigrate(gdb); err != nil {
		fail(lg, "migrate schema", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		fail(lg, "open redis", err)
	}
	defer rdb.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	clk := clock.System()
	policy := retry.Policy{MaxRetries: cfg.BudgetRetryMax, Interval: cfg.BudgetRetryInterval}
	cat := catalog.Default()

	tx := gormrepo.NewGormUoW(gdb)
	records := gormrepo.NewAssistanceRepository(gdb)
	people := gormrepo.NewBeneficiaryRepository(gdb)
	trail := audittrail.NewTrail(gormrepo.NewAuditRepository(gdb), clk, lg)

	alloc := campaign.NewAllocator(gormrepo.NewCampaignRepository(gdb), records, tx, cat, trail,
		campaign.WithClock(clk), campaign.WithMetrics(m), campaign.WithLogger(lg), campaign.WithRetryPolicy(policy))
	life := assistance.NewLifecycle(records, tx, people, cat, alloc, equipmentuc.NewTracker(clk), trail,
		assistance.WithClock(clk), assistance.WithMetrics(m), assistance.WithLogger(lg),
		assistance.WithRetryPolicy(policy), assistance.WithReminderConcurrency(cfg.ReminderConcurrency))
	registry := beneficiary.NewRegistry(people, tx, trail, lg)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())
	e.Use(idemp.Idempotency(rdb, cfg.IdempotencyTTL(), idemp.WithClock(clk), idemp.WithLogger(lg)))

	httpadp.Register(e, httpadp.Handlers{
		Health:        httpadp.NewHandler(gdb, rdb),
		Campaigns:     httpadp.NewCampaignHandler(alloc),
		Assistances:   httpadp.NewAssistanceHandler(life),
		Beneficiaries: httpadp.NewBeneficiaryHandler(registry),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	go func() {
		lg.Info("listening", "addr", addr, "db_driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", "error", err)
	}
}

func fail(lg *slog.Logger, msg string, err error) {
	lg.Error(msg, "error", err)
	os.Exit(1)
}
