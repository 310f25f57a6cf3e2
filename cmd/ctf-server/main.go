package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	challengecontroller "flagforge/internal/challenge/controller"
	challengerepo "flagforge/internal/challenge/repository"
	challengeservice "flagforge/internal/challenge/service"
	"flagforge/internal/common/cache"
	"flagforge/internal/common/db"
	leaderboardcontroller "flagforge/internal/leaderboard/controller"
	leaderboardrepo "flagforge/internal/leaderboard/repository"
	leaderboardservice "flagforge/internal/leaderboard/service"
	"flagforge/internal/ratelimit"
	scoringcontroller "flagforge/internal/scoring/controller"
	scoringrepo "flagforge/internal/scoring/repository"
	scoringservice "flagforge/internal/scoring/service"
	"flagforge/internal/secret"
	"flagforge/internal/server"
	usercontroller "flagforge/internal/user/controller"
	userrepo "flagforge/internal/user/repository"
	userservice "flagforge/internal/user/service"
	"flagforge/pkg/utils/logger"

	"go.uber.org/zap"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	cfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.NewMySQL(cfg.MySQL)
	if err != nil {
		logger.Error(context.Background(), "init mysql failed", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = database.Close() }()

	redisCache, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Error(context.Background(), "init redis failed", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = redisCache.Close() }()

	tokens, err := userservice.NewTokenManager(cfg.Auth)
	if err != nil {
		logger.Error(context.Background(), "init token manager failed", zap.Error(err))
		os.Exit(1)
	}

	hasher := secret.NewBcryptHasher()
	limiter := ratelimit.NewWithPolicies(cfg.policies())

	users := userrepo.NewUserRepository(database)
	challenges := challengerepo.NewChallengeRepository(database)
	submissions := scoringrepo.NewSubmissionRepository(database)
	standings := leaderboardrepo.NewStandingsRepository(database)

	authService, err := userservice.NewAuthService(userservice.Config{
		Users:   users,
		Hasher:  hasher,
		Tokens:  tokens,
		Limiter: limiter,
	})
	if err != nil {
		logger.Error(context.Background(), "init auth service failed", zap.Error(err))
		os.Exit(1)
	}

	challengeService, err := challengeservice.NewChallengeService(challengeservice.Config{
		Challenges: challenges,
		Hasher:     hasher,
	})
	if err != nil {
		logger.Error(context.Background(), "init challenge service failed", zap.Error(err))
		os.Exit(1)
	}

	leaderboardService, err := leaderboardservice.NewLeaderboardService(leaderboardservice.Config{
		Standings: standings,
		Cache:     redisCache,
		TTL:       cfg.Leaderboard.CacheTTL,
	})
	if err != nil {
		logger.Error(context.Background(), "init leaderboard service failed", zap.Error(err))
		os.Exit(1)
	}

	submissionService, err := scoringservice.NewSubmissionService(scoringservice.Config{
		DB:          database,
		Submissions: submissions,
		Challenges:  challenges,
		Users:       users,
		Hasher:      hasher,
		Limiter:     limiter,
		Board:       leaderboardService,
	})
	if err != nil {
		logger.Error(context.Background(), "init submission service failed", zap.Error(err))
		os.Exit(1)
	}

	router := server.NewRouter(server.RouterConfig{
		Auth:        usercontroller.NewAuthController(authService),
		Challenges:  challengecontroller.NewChallengeController(challengeService),
		Submissions: scoringcontroller.NewSubmissionController(submissionService),
		Leaderboard: leaderboardcontroller.NewLeaderboardController(leaderboardService),
		Tokens:      tokens,
		CORS:        cfg.CORS,
	})

	httpServer := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "http server started", zap.String("addr", cfg.Server.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}
