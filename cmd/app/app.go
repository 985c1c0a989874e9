package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/api"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/config"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/db"
	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment, conf.Log); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	var redisClient *redis.Client
	if redisURL != "" {
		redisClient, err = db.OpenRedisWithURL(redisURL)
	} else {
		redisClient, err = db.OpenRedis(conf.Redis)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize redis -> %w", err)
	}
	defer redisClient.Close()

	s, err := api.NewServer(conf, postgresDB, redisClient)
	if err != nil {
		return fmt.Errorf("failed to initialize server -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.API.AdminPassword != "" {
		if _, err = s.Auth.EnsureStaff(ctx, conf.API.AdminEmail, conf.API.AdminPassword, "Admin"); err != nil {
			return fmt.Errorf("failed to seed admin user -> %w", err)
		}
	}

	// Workers stop only after the HTTP server has drained.
	workCtx, stopWork := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	defer func() {
		stopWork()
		workers.Wait()
	}()

	workers.Add(2)
	go func() {
		defer workers.Done()
		s.Live.Run(workCtx)
	}()
	go func() {
		defer workers.Done()
		s.Runner.Run(workCtx)
	}()

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
		return fmt.Errorf("failed to start the server -> %w", err)
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown() -> %w", err)
	}

	return nil
}
