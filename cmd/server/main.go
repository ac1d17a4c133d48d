package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"formpilot/internal/cache"
	"formpilot/internal/config"
	"formpilot/internal/logging"
	"formpilot/internal/repository"
	"formpilot/internal/service"
	"formpilot/internal/transport/rest"
	"formpilot/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	logger.Info("starting",
		zap.String("port", cfg.HTTPPort),
		zap.String("forms_base_url", cfg.FormsBaseURL),
		zap.Duration("submit_delay", cfg.SubmitDelay),
		zap.String("answer_model", cfg.AI.Model),
		zap.Bool("ai_enabled", cfg.AI.IsEnabled()),
	)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return err
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.MongoDB))

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return err
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// Initialize WebSocket hub
	wsHub := ws.NewHub(logger)
	defer wsHub.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepo(db, logger)
	nameRepo := repository.NewNameRepo(db)

	// Initialize caches
	formCache := cache.NewFormCache(rdb, cfg.FormCacheTTL)
	selectionCache := cache.NewSelectionCache(rdb)
	usageCache := cache.NewUsageCache(rdb)

	// Initialize services
	formsClient := service.NewFormsClient(cfg.FormsBaseURL, cfg.FormsMaxRetries, logger)
	answerSvc, err := service.NewAnswerService(ctx, cfg.AI, logger)
	if err != nil {
		return err
	}
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	userSvc := service.NewUserService(userRepo, usageCache, logger)
	nameSvc := service.NewNameService(nameRepo, logger)
	formSvc := service.NewFormService(formsClient, formCache, selectionCache, logger)
	submissionSvc := service.NewSubmissionService(formsClient, answerSvc, userSvc, cfg.SubmitDelay, logger)
	runSvc := service.NewRunService(submissionSvc, formSvc, userSvc, nameSvc, logger)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	submissionSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:        authSvc,
		UserService:        userSvc,
		FormService:        formSvc,
		RunService:         runSvc,
		NameService:        nameSvc,
		WSHub:              wsHub,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := runSvc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("runs did not stop in time", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
