package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/studyvoice-backend/internal/data/db"
	"github.com/yungbote/studyvoice-backend/internal/data/repos"
	apphttp "github.com/yungbote/studyvoice-backend/internal/http"
	"github.com/yungbote/studyvoice-backend/internal/observability"
	"github.com/yungbote/studyvoice-backend/internal/platform/logger"
	"github.com/yungbote/studyvoice-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Repos
	Clients  Clients
	Services Services
	SSEHub   *realtime.SSEHub
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if logMode == "prod" || logMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	theDB, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	ssehub := realtime.NewSSEHub(log)

	clients, err := wireClients(ctx, log, cfg, ssehub)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := repos.New(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, log, serviceset, ssehub)
	server := wireServer(log, cfg, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		SSEHub:       ssehub,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// sseDrainGrace is how long open event streams get to receive their terminal
// events after narrations stop before they are closed.
const sseDrainGrace = 2 * time.Second

// Run serves HTTP until ctx is cancelled, then stops running narrations,
// lets event streams drain and shuts the server down within ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	if n, err := a.Services.Narration.RecoverOrphans(ctx); err != nil {
		a.Log.Warn("narration recovery failed", "error", err)
	} else if n > 0 {
		a.Log.Info("Marked orphaned narrations stopped", "count", n)
	}

	// the forwarder outlives ctx so stop events published during shutdown
	// still reach connected streams
	fwdCtx, stopForwarder := context.WithCancel(context.Background())
	defer stopForwarder()
	if err := a.Clients.SSEBus.StartForwarder(fwdCtx, a.dispatch); err != nil {
		return fmt.Errorf("start SSE forwarder: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		return a.Server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		return a.shutdown(shutdownCtx, stopForwarder)
	})
	return g.Wait()
}

// dispatch routes bus messages: narration commands to the service, everything
// else to connected streams.
func (a *App) dispatch(msg realtime.SSEMessage) {
	if msg.Channel == realtime.NarrationControlChannel {
		a.Services.Narration.HandleControl(msg)
		return
	}
	a.SSEHub.Broadcast(msg)
}

func (a *App) shutdown(ctx context.Context, stopForwarder context.CancelFunc) error {
	a.Log.Info("Shutting down...")
	var firstErr error
	if err := a.Services.Narration.Shutdown(ctx); err != nil {
		a.Log.Warn("narration shutdown incomplete", "error", err)
		firstErr = err
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, sseDrainGrace)
	a.SSEHub.Drain(drainCtx)
	cancelDrain()
	stopForwarder()

	if err := a.Server.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("http shutdown: %w", err)
	}
	return firstErr
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
