package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_webapp/internal/cache"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	httpServer "todo_webapp/internal/http"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/repository/memstore"
	"todo_webapp/internal/service"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	var (
		users  service.UserStore
		tasks  service.TaskStore
		audits service.AuditStore
		checks = map[string]handlers.Pinger{}
	)

	if cfg.DevMode && cfg.DatabaseURL == "" {
		logger.Warn("DEV_MODE without DATABASE_URL, using in-memory store")
		mem := memstore.New()
		users = memstore.NewUserRepository(mem)
		tasks = memstore.NewTaskRepository(mem)
		audits = memstore.NewAuditRepository(mem)
		checks["database"] = nil
	} else {
		pool := db.Connect(cfg.DatabaseURL)
		defer pool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx, pool)
		cancel()
		if err != nil {
			logger.Fatal("migrations failed", "error", err)
		}

		users = repository.NewUserRepository(pool)
		tasks = repository.NewTaskRepository(pool)
		audits = repository.NewAuditRepository(pool)
		checks["database"] = pool
	}

	redisClient := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		checks["redis"] = nil
	}

	hub := ws.NewHub()
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := service.NewAuthService(users, service.NewBcryptHasher(cfg.BcryptCost), tokens, service.NewAuditService(audits))
	taskSvc := service.NewTaskService(tasks, cache.NewTaskCache(redisClient, cfg.TaskCacheTTL), hub)

	h := handlers.NewHandler(authSvc, taskSvc, tokens, users, hub, cfg.AllowedOrigin)
	health := handlers.NewHealthHandler(cfg.AppVersion, checks)

	r := httpServer.NewRouter(h, health)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", cfg.AppVersion, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
