package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-ledger/api/swagger"
	"github.com/noah-isme/academic-ledger/internal/contract"
	"github.com/noah-isme/academic-ledger/internal/gateway"
	"github.com/noah-isme/academic-ledger/internal/handler"
	internalmiddleware "github.com/noah-isme/academic-ledger/internal/middleware"
	"github.com/noah-isme/academic-ledger/internal/repository"
	"github.com/noah-isme/academic-ledger/internal/service"
	"github.com/noah-isme/academic-ledger/pkg/cache"
	"github.com/noah-isme/academic-ledger/pkg/config"
	"github.com/noah-isme/academic-ledger/pkg/database"
	"github.com/noah-isme/academic-ledger/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-ledger/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-ledger/pkg/middleware/requestid"
)

// @title Academic Ledger Gateway
// @version 1.0.0
// @description Submits and evaluates academic credential transactions
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := gateway.OpenBackend(ctx, cfg, database.NewPostgres, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open ledger", "error", err)
	}
	defer backend.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, query cache disabled", zap.Error(err))
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	validate := validator.New()
	handlers := service.NewHandlers(cfg.Organizations, cfg.Verification.BaseURL, validate, logr)
	gw := gateway.New(backend.Ledger, contract.New(handlers), cfg.Ledger.MaxConflictRetries, logr,
		gateway.WithMetrics(metricsSvc), gateway.WithCache(cacheSvc))

	authSvc := service.NewAuthService(cfg.JWT)
	exportSvc := service.NewExportService(cfg.Verification.Institution, logr, nil, nil)

	ledgerHandler := handler.NewLedgerHandler(gw)
	verificationHandler := handler.NewVerificationHandler(gw, validate)
	documentHandler := handler.NewDocumentHandler(gw, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, backend.Name, backend)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/verify/:code", internalmiddleware.OptionalJWT(authSvc), verificationHandler.Lookup)

	if cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	public := api.Group("")
	public.Use(internalmiddleware.OptionalJWT(authSvc))
	public.GET("/transactions", ledgerHandler.Functions)
	public.GET("/queries/:name", ledgerHandler.Query)
	public.POST("/verifications", verificationHandler.Verify)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.POST("/transactions/:name", ledgerHandler.Submit)
	secured.GET("/metrics/summary", metricsHandler.Summary)

	registry := append([]string{cfg.Organizations.Issuer}, cfg.Organizations.Departments...)
	documents := secured.Group("")
	documents.Use(internalmiddleware.RequireOrganization(registry...))
	documents.GET("/certificates/:id/document", documentHandler.Certificate)
	documents.GET("/students/:id/transcript", documentHandler.Transcript)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "ledger", backend.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
