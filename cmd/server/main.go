package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/municipal-tracker/internal/auth"
	"github.com/yukikurage/municipal-tracker/internal/config"
	"github.com/yukikurage/municipal-tracker/internal/database"
	"github.com/yukikurage/municipal-tracker/internal/handlers"
	"github.com/yukikurage/municipal-tracker/internal/lifecycle"
	"github.com/yukikurage/municipal-tracker/internal/lock"
	"github.com/yukikurage/municipal-tracker/internal/logger"
	"github.com/yukikurage/municipal-tracker/internal/repository"
	"github.com/yukikurage/municipal-tracker/internal/scheduler"
	"github.com/yukikurage/municipal-tracker/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.IsRelease())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	taskRepo := repository.NewTaskRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	authService := services.NewAuthService(repository.NewUserRepository(db))
	taskService := services.NewTaskService(taskRepo, fileRepo, services.TaskServiceOptions{
		Policy:    lifecycle.Policy{RequireNoteFromOverdue: cfg.RequireNoteFromOverdue},
		Lookahead: cfg.Lookahead(),
		Logger:    zlog,
	})

	router := handlers.NewRouter(handlers.RouterDeps{
		Logger:         zlog,
		Issuer:         auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Auth:           authService,
		Tasks:          taskService,
		Files:          services.NewFileService(fileRepo),
		Activities:     services.NewActivityService(activityRepo),
		Dashboard:      services.NewDashboardService(taskService, taskRepo, fileRepo, activityRepo, cfg.Location),
		Location:       cfg.Location,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Only one instance sweeps per cycle when redis is shared.
	var locker lock.Locker = lock.Local{}
	if cfg.RedisEnabled() {
		rdb, err := lock.Connect(cfg.RedisAddr(), cfg.RedisPassword)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		locker = lock.NewRedisLocker(rdb, "municipal-tracker:")
		zlog.Info("redis lock enabled", zap.String("addr", cfg.RedisAddr()))
	}

	jobs := scheduler.New(zlog)
	if err := jobs.Register(services.OverdueSweepJob(taskService, locker, cfg.OverdueSweepInterval, zlog)); err != nil {
		zlog.Fatal("failed to register job", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	jobs.Start(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr), zap.String("timezone", cfg.Location.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server...")
	stop()
	jobs.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
	zlog.Info("server exited")
}
