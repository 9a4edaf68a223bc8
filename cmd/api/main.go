package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/halcyonlabel/backend/internal/config"
	"github.com/halcyonlabel/backend/internal/handlers"
	"github.com/halcyonlabel/backend/internal/logging"
	"github.com/halcyonlabel/backend/internal/middleware"
	"github.com/halcyonlabel/backend/internal/models"
	"github.com/halcyonlabel/backend/internal/pkg/pdfgen"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.New()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	if envErr != nil {
		logger.Info("no .env file found, using environment variables")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := models.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	if err := models.Migrate(db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient := models.InitRedis(cfg, logger)
	defer redisClient.Close()

	layout, err := pdfgen.LoadLayout(cfg.ContractLayoutPath)
	if err != nil {
		logger.Fatal("failed to load contract layout", zap.String("path", cfg.ContractLayoutPath), zap.Error(err))
	}

	var mirror services.ContractMirror
	if cfg.ContractsMirrorEnabled() {
		s3Service, err := services.NewS3Service(cfg)
		if err != nil {
			logger.Fatal("failed to init contracts mirror", zap.Error(err))
		}
		mirror = s3Service
	}

	// Services
	userService := services.NewUserService(db)
	authService := services.NewAuthService(userService, redisClient, cfg, logger)
	contractService := services.NewContractService(db)
	storageService := services.NewStorageService(services.DefaultStorageRoots(cfg), mirror, logger)
	qrService := services.NewQRService(cfg)
	documentService := services.NewDocumentService(
		contractService,
		storageService,
		pdfgen.NewTemplateRenderer(cfg.ContractTemplatePath, layout),
		pdfgen.NewLegacyGenerator(),
		qrService,
		services.LabelInfoFromConfig(cfg),
		logger,
	)

	if _, err := os.Stat(cfg.ContractTemplatePath); err != nil {
		logger.Warn("contract template not readable, generated documents will use the legacy layout",
			zap.String("path", cfg.ContractTemplatePath), zap.Error(err))
	}

	// Handlers
	contractHandler := handlers.NewContractHandler(documentService, logger)

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg, logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		contracts := api.Group("/contracts")
		contracts.Use(middleware.TokenFromQuery())
		contracts.Use(middleware.Auth(authService, logger))
		contracts.Use(middleware.RenderRateLimit(redisClient, cfg, logger))
		{
			contracts.GET("/:id/document", contractHandler.GetDocument)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
