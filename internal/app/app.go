package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-matchengine/internal/config"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/player"
	repocache "github.com/riskibarqy/fantasy-matchengine/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-matchengine/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-matchengine/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-matchengine/internal/interfaces/httpapi"
	basecache "github.com/riskibarqy/fantasy-matchengine/internal/platform/cache"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/id"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-matchengine/internal/usecase"
)

// App holds the wired process: HTTP server, simulation service and the
// optional database handle.
type App struct {
	Server  *http.Server
	Service *usecase.SimulationService

	db     *sqlx.DB
	logger *logging.Logger
}

// New wires repositories, the simulation service and the HTTP router. With
// an empty DB_URL everything runs in memory on the seeded player pool.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	var (
		matchRepo  match.Repository
		playerRepo player.Repository
		db         *sqlx.DB
	)

	if cfg.DBURL == "" {
		logger.Info("storage backend selected", "backend", "memory")
		matchRepo = memory.NewMatchRepository()
		playerRepo = memory.NewPlayerRepository(memory.SeedPlayers())
	} else {
		var err error
		db, err = OpenDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := postgres.BootstrapSeed(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap seed: %w", err)
		}

		breaker := resilience.NewCircuitBreakerFromConfig(resilience.CircuitBreakerConfig{
			Enabled:          cfg.DBCircuitEnabled,
			FailureThreshold: cfg.DBCircuitFailureCount,
			OpenTimeout:      cfg.DBCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.DBCircuitHalfOpenMaxReq,
		}, func(from, to resilience.CircuitState) {
			logger.Warn("db circuit state changed", "from", string(from), "to", string(to))
		})

		logger.Info("storage backend selected", "backend", "postgres", "db_name", dbNameFromURL(cfg.DBURL))
		matchRepo = postgres.NewMatchRepository(db, breaker)
		playerRepo = postgres.NewPlayerRepository(db, breaker)
		if cfg.PlayerCacheTTL > 0 {
			playerRepo = repocache.NewPlayerRepository(playerRepo, basecache.NewStore[[]player.Player](cfg.PlayerCacheTTL))
		}
	}

	service, err := usecase.NewSimulationService(matchRepo, playerRepo, id.NewUUIDGenerator(), usecase.SimulationOptions{
		TickInterval:      cfg.SimTickInterval,
		MinuteStep:        cfg.SimMinuteStep,
		StoppageMinutes:   cfg.SimStoppageMinutes,
		MaxConcurrent:     cfg.SimMaxConcurrent,
		CompletionWorkers: cfg.SimCompletionWorkers,
		PointsCacheTTL:    cfg.PointsCacheTTL,
		TrendThreshold:    cfg.ValuationTrendThreshold,
	}, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("build simulation service: %w", err)
	}

	handler := httpapi.NewHandler(service, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Service: service,
		db:      db,
		logger:  logger,
	}, nil
}

// Shutdown stops accepting requests, drains running matches and their
// completion work, then closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.Service.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown simulation service: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close db: %w", err))
		}
	}
	return errors.Join(errs...)
}
