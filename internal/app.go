package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"shop-app/auth-service/internal/config"
	"shop-app/auth-service/internal/handlers"
	"shop-app/auth-service/internal/logging"
	"shop-app/auth-service/internal/repository"
	userRepository "shop-app/auth-service/internal/repository/user"
	services "shop-app/auth-service/internal/service"
	"shop-app/auth-service/internal/sweeper"
	"shop-app/auth-service/internal/token"
)

func Run() error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.NewDefault()

	userRepo, err := userRepository.NewSQLiteUserRepository(cfg.SQLitePath)
	if err != nil {
		return err
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelConnect()
	refreshTokenRepo, err := repository.NewMongoDBRefreshTokenRepository(connectCtx, cfg.MongoDBURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer refreshTokenRepo.Close()

	tokens := token.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.Issuer)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, tokens, hasher, log)

	router := gin.Default()
	handlers.SetupAuthRoutes(router, authService, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Daily expiry sweep in the background.
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go sweeper.New(refreshTokenRepo, cfg.SweepHour, log).Run(sweepCtx)

	server := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	// Graceful shutdown.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down server")

		cancelSweep()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown failed", "error", err)
			return
		}
		log.Info("server gracefully stopped")
	}()

	log.Info("starting server", "addr", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}
