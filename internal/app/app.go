package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/wishbox-backend/internal/http"
	"github.com/yungbote/wishbox-backend/internal/observability"
	"github.com/yungbote/wishbox-backend/internal/platform/envutil"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
	"github.com/yungbote/wishbox-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Metrics  *observability.Metrics
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *http.Server

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

// NewLogger builds the process logger from LOG_MODE before config loads.
func NewLogger() (*logger.Logger, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

func New(ctx context.Context) (*App, error) {
	log, err := NewLogger()
	if err != nil {
		return nil, err
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init(log, cfg.MetricsEnabled)

	theDB, err := OpenDatabase(log, cfg, cfg.AutoMigrate)
	if err != nil {
		log.Sync()
		return nil, err
	}
	metrics.RegisterDBStats(log, theDB)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		closeDB(theDB)
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, metrics, reposet, clientset)
	handlerset := wireHandlers(log, theDB, serviceset, clientset)
	server := wireServer(log, cfg, metrics, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Metrics:      metrics,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background loops: the draft/orphan sweeper when
// SWEEP_INTERVAL is positive and the redis health collector.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Cfg.SweepInterval > 0 && a.Services.Sweeper != nil {
		a.Log.Info("Starting sweeper", "interval", a.Cfg.SweepInterval)
		go a.Services.Sweeper.Run(ctx, a.Cfg.SweepInterval)
	}
	if a.Clients.SlugReserver != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.SlugReserver, 15*time.Second)
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Sweep runs one expiry and orphan pass.
func (a *App) Sweep(ctx context.Context) (services.SweepResult, error) {
	if a == nil || a.Services.Sweeper == nil {
		return services.SweepResult{}, fmt.Errorf("app not initialized")
	}
	return a.Services.Sweeper.Sweep(ctx, time.Now())
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	closeDB(a.DB)
	if a.Log != nil {
		a.Log.Sync()
	}
}

// Migrate applies the schema without building the rest of the app.
func Migrate(log *logger.Logger) error {
	cfg, err := LoadConfig(log)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	theDB, err := OpenDatabase(log, cfg, true)
	if err != nil {
		return err
	}
	defer closeDB(theDB)
	log.Info("Migrations applied", "driver", cfg.DBDriver)
	return nil
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
