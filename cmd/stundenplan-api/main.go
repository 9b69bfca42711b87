package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sekundarstufe/stundenplan-core/api/swagger"
	internalhandler "github.com/sekundarstufe/stundenplan-core/internal/handler"
	internalmiddleware "github.com/sekundarstufe/stundenplan-core/internal/middleware"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
	"github.com/sekundarstufe/stundenplan-core/internal/store"
	"github.com/sekundarstufe/stundenplan-core/pkg/cache"
	"github.com/sekundarstufe/stundenplan-core/pkg/config"
	"github.com/sekundarstufe/stundenplan-core/pkg/database"
	"github.com/sekundarstufe/stundenplan-core/pkg/logger"
	corsmiddleware "github.com/sekundarstufe/stundenplan-core/pkg/middleware/cors"
	reqidmiddleware "github.com/sekundarstufe/stundenplan-core/pkg/middleware/requestid"
	"github.com/sekundarstufe/stundenplan-core/pkg/storage"
)

// @title Stundenplan API
// @version 1.0.0
// @description Weekly timetable solving for Sekundarstufe I schools
// @BasePath /
// @schemes http

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

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	var hintCache *store.HintCache
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, warm-start cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		hintCache = store.NewHintCache(redisClient, cfg.Solver.HintCacheTTL)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authRepo := store.NewUserRepository(db)
	authSvc := service.NewAuthService(authRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "stundenplan-api",
		Audience:           []string{"stundenplan-clients"},
	})
	authHandler := internalhandler.NewAuthHandler(authSvc)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)

	solveSvc := service.NewSolveService(cfg.Solver, hintCache, metricsSvc, logr)
	jobSvc := service.NewSolveJobService(solveSvc, cfg.Jobs, logr)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobSvc.Start(ctx)
	defer jobSvc.Stop()

	solveHandler := internalhandler.NewSolveHandler(solveSvc, jobSvc)

	scenarioRepo := store.NewScenarioRepository(db)
	scenarioSvc := service.NewScenarioService(scenarioRepo, logr)
	scenarioHandler := internalhandler.NewScenarioHandler(scenarioSvc)

	exportSvc := service.NewExportService(exportStore, signer, logr)
	exportHandler := internalhandler.NewExportHandler(exportSvc)

	protected := api.Group("")
	protected.Use(internalmiddleware.JWT(authSvc))
	protected.POST("/solve", solveHandler.Solve)
	protected.POST("/solve/async", solveHandler.SolveAsync)
	protected.GET("/solve/jobs/:id", solveHandler.JobStatus)
	protected.POST("/validate", solveHandler.Validate)
	protected.GET("/scenarios", scenarioHandler.List)
	protected.POST("/scenarios", scenarioHandler.Save)
	protected.GET("/scenarios/:name", scenarioHandler.Load)
	protected.DELETE("/scenarios/:name", scenarioHandler.Delete)
	protected.POST("/exports", exportHandler.Render)

	// Downloads authenticate through the signed token itself.
	api.GET("/exports/:token", exportHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("starting stundenplan api", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server stopped", "error", err)
	}
}
