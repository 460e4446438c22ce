package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/livepoll/livepoll/api"
	"github.com/livepoll/livepoll/internal/event"
	"github.com/livepoll/livepoll/internal/handler"
	"github.com/livepoll/livepoll/internal/live"
	"github.com/livepoll/livepoll/internal/mirror"
	"github.com/livepoll/livepoll/internal/platform/config"
	"github.com/livepoll/livepoll/internal/platform/database"
	"github.com/livepoll/livepoll/internal/platform/health"
	"github.com/livepoll/livepoll/internal/platform/logging"
	"github.com/livepoll/livepoll/internal/platform/shutdown"
	"github.com/livepoll/livepoll/internal/store"
	"github.com/livepoll/livepoll/pkg/lifecycle"
)

var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(os.Stdout, cfg.Log))
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	db, err := database.Open(cfg.Database, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	st := store.New(db)
	if err := st.Migrate(ctx); err != nil {
		database.Close(db)
		return err
	}

	services := lifecycle.NewManager(ctx)
	coordinator := shutdown.NewCoordinator(services)
	hub := live.NewHub(cfg.Poll.SendTimeout)
	coordinator.OnShutdown("hub", func() error {
		hub.Close()
		return nil
	})

	rdb, err := database.OpenRedis(ctx, cfg.Database.Redis)
	if err != nil {
		database.Close(db)
		return err
	}
	// Until the coordinator takes over, early returns release the stores.
	release := func() {
		if rdb != nil {
			rdb.Close()
		}
		database.Close(db)
	}

	var mirrorTo event.Mirror
	status := database.NewStatus()
	if rdb != nil {
		mirrorTo = mirror.NewRedis(rdb, cfg.Database.Redis.Key, cfg.Database.Redis.Channel, status)
		coordinator.OnShutdown("redis", rdb.Close)
	}

	events := event.NewRouter(st, hub, mirrorTo)

	if rdb != nil {
		checker := health.NewChecker(rdb, status, events.Resync)
		if err := checker.Initialize(ctx); err != nil {
			slog.Warn("redis did not report a run id, restart detection disabled", "error", err)
		}
		events.Resync(ctx)

		handle, err := services.NewServiceHandle("redis-health")
		if err != nil {
			release()
			return err
		}
		go checker.Run(handle)
	}
	coordinator.OnShutdown("database", func() error {
		return database.Close(db)
	})

	h := handler.New(st, hub, events, services, handler.OptionsFromConfig(cfg, version))
	engine, err := api.NewEngine(h, cfg.Server)
	if err != nil {
		services.Shutdown()
		services.WaitWithTimeout(time.Second)
		release()
		return err
	}
	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: engine,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr, "base_path", cfg.Server.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	coordinator.ListenForSignalsAndShutdown(server)
	return nil
}
