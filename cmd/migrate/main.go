// Command migrate creates or updates the schema and, with -decisions,
// rewrites legacy beneficiary decision spellings to their canonical values.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"os"

	"assistance-backend/internal/adapter/repository/gormrepo"
	"assistance-backend/internal/config"
	"assistance-backend/internal/infrastructure/db"
	"assistance-backend/internal/infrastructure/logger"
	audittrail "assistance-backend/internal/usecase/audit"
	"assistance-backend/internal/usecase/beneficiary"
	"assistance-backend/pkg/clock"
	"assistance-backend/pkg/id"
)

func main() {
	decisions := flag.Bool("decisions", false, "migrate legacy beneficiary decisions")
	actor := flag.String("actor", "", "32-hex actor id recorded on audit events")
	flag.Parse()

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
	lg.Info("schema up to date", "db_driver", cfg.DBDriver)
	if !*decisions {
		return
	}
	if !id.Valid(*actor) {
		fail(lg, "invalid -actor", errors.New("must be a 32-char lowercase hex id"))
	}

	people := gormrepo.NewBeneficiaryRepository(gdb)
	trail := audittrail.NewTrail(gormrepo.NewAuditRepository(gdb), clock.System(), lg)
	registry := beneficiary.NewRegistry(people, gormrepo.NewGormUoW(gdb), trail, lg)

	report, err := registry.MigrateDecisions(context.Background(), *actor)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil {
		fail(lg, "decision migration stopped", err)
	}
	lg.Info("decision migration done", "changed", report.Changed, "unknown", len(report.Unknown))
}

func fail(lg *slog.Logger, msg string, err error) {
	lg.Error(msg, "error", err)
	os.Exit(1)
}
