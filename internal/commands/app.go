package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/nholding/tenor/internal/config"
	"github.com/nholding/tenor/internal/contract"
	"github.com/nholding/tenor/internal/logger"
	mappingrepo "github.com/nholding/tenor/internal/mapping/repository"
	periodrepo "github.com/nholding/tenor/internal/period/repository"
	"github.com/nholding/tenor/internal/period/service"
	clients "github.com/nholding/tenor/internal/repository"
)

// app is the wiring shared by all commands.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *sql.DB
	svc *service.PeriodService
}

// newApp loads config, opens the configured database when storage is set and initializes the
// period service. Logs go to stderr so command output stays parseable.
func newApp(ctx context.Context, opts *rootOptions, storage bool) (*app, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	a := &app{cfg: cfg, log: logger.NewWithWriter(cfg, os.Stderr)}

	svcOpts := []service.Option{service.WithLogger(a.log)}
	if len(cfg.Markets) > 0 {
		svcOpts = append(svcOpts, service.WithParser(contract.NewParser(cfg.Markets...)))
	}

	if storage {
		db, dialect, err := clients.OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if db != nil {
			a.db = db

			mr := mappingrepo.NewSQLMappingRepository(db, dialect)
			if err := mr.Migrate(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("migrate mappings: %w", err)
			}
			pr := periodrepo.NewSQLPeriodRepository(db, dialect)
			if err := pr.Migrate(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("migrate periods: %w", err)
			}
			svcOpts = append(svcOpts, service.WithMappingRepository(mr), service.WithPeriodRepository(pr))

			a.log.WithFields(map[string]interface{}{
				"driver": cfg.Database.Driver,
			}).Debug("Connected to database")
		}
	}

	a.svc, err = service.NewPeriodService(cfg.TransitionWindows(), svcOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.svc.InitializePeriods(ctx, cfg.Periods.StartYear, cfg.Periods.EndYear); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
