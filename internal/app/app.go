package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gameia/engine/internal/config"
	"github.com/gameia/engine/internal/db"
	"github.com/gameia/engine/internal/events"
	"github.com/gameia/engine/internal/middleware"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/service"
	"github.com/gameia/engine/internal/storage"
	"github.com/gameia/engine/internal/worker"
	"github.com/jmoiron/sqlx"
)

const (
	mutationsPerWindow = 120
	rateLimitWindow    = time.Minute
	settleQueueSize    = 256
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Store             *repository.Store
	Bus               *events.Bus
	RateLimiter       *middleware.RateLimiter
	AuthService       *service.AuthService
	GoalService       *service.GoalService
	SettlementService *service.SettlementService
	LedgerService     *service.LedgerService
	InsigniaService   *service.InsigniaService
	HealthService     *service.HealthService
	ContentService    *service.ContentService
	Sweeper           *worker.DeadlineSweeper
	Settler           *worker.SettlementWorker
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Receipt archive
	archive, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	healthCopy, err := service.LoadHealthCopy(cfg.HealthCopyPath)
	if err != nil {
		database.Close()
		return nil, err
	}

	store := repository.NewStore(database)
	locks := service.NewGoalLocks()
	bus := events.NewBus()
	rules := service.Rules{
		SupporterBonusRate: cfg.SupporterBonusRate,
		MaxSupportCoins:    cfg.MaxSupportCoins,
		MaxConflictRetries: cfg.MaxConflictRetries,
	}
	policy := service.RetryPolicy{
		Base:    cfg.SettleRetryBase,
		Max:     cfg.SettleRetryMax,
		Timeout: cfg.SettleRetryTimeout,
	}

	// Services
	settlementService := service.NewSettlementService(store, locks, archive, bus, rules, policy)
	settler := worker.NewSettlementWorker(settlementService, cfg.SettleInterval, settleQueueSize)
	goalService := service.NewGoalService(store, locks, bus, settler, rules)
	sweeper := worker.NewDeadlineSweeper(goalService, cfg.SweepInterval)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Store:             store,
		Bus:               bus,
		RateLimiter:       middleware.NewRateLimiter(mutationsPerWindow, rateLimitWindow),
		AuthService:       service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry),
		GoalService:       goalService,
		SettlementService: settlementService,
		LedgerService:     service.NewLedgerService(store),
		InsigniaService:   service.NewInsigniaService(store),
		HealthService:     service.NewHealthService(healthCopy),
		ContentService:    service.NewContentService(store, cfg.ContentPath),
		Sweeper:           sweeper,
		Settler:           settler,
	}, nil
}

func (a *App) Close() error {
	if a.RateLimiter != nil {
		a.RateLimiter.Stop()
	}
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
