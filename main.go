package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ilmarsk/notehub/config"
	"github.com/ilmarsk/notehub/internal/database"
	"github.com/ilmarsk/notehub/internal/logger"
	"github.com/ilmarsk/notehub/internal/notify"
	"github.com/ilmarsk/notehub/internal/router"
	ws "github.com/ilmarsk/notehub/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		logger.Logger.Fatalf("failed to initialize logger: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Logger.Fatalf("failed to initialize database: %v", err)
	}

	// One bus instance serves both the publishing services and the
	// websocket hub.
	bus := notify.New()
	hub := ws.NewHub(bus)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	r, err := router.New(db, cfg, bus, hub)
	if err != nil {
		logger.Logger.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Infof("listening on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down")
	stopHub()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Fatalf("forced shutdown: %v", err)
	}

	logger.Infof("server exited")
}
