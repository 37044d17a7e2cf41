package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/duty-roster-api/api/swagger"
	"github.com/noah-isme/duty-roster-api/internal/handler"
	"github.com/noah-isme/duty-roster-api/internal/middleware"
	"github.com/noah-isme/duty-roster-api/internal/models"
	"github.com/noah-isme/duty-roster-api/internal/repository"
	"github.com/noah-isme/duty-roster-api/internal/service"
	"github.com/noah-isme/duty-roster-api/pkg/cache"
	"github.com/noah-isme/duty-roster-api/pkg/config"
	"github.com/noah-isme/duty-roster-api/pkg/database"
	"github.com/noah-isme/duty-roster-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/duty-roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/duty-roster-api/pkg/middleware/requestid"
)

// @title Duty Roster API
// @version 1.0.0
// @description Kitchen duty scheduling with peer-to-peer swap negotiation
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, roster cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	memberRepo := repository.NewMemberRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	swapRepo := repository.NewSwapRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Roster.CacheTTL, logr, cfg.Roster.CacheEnabled)
	}

	authSvc := service.NewAuthService(memberRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "duty-roster-api",
	})
	rosterSvc := service.NewRosterService(scheduleRepo, swapRepo, memberRepo, cacheSvc, logr)
	memberSvc := service.NewMemberService(memberRepo, memberRepo, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, memberRepo, memberRepo, rosterSvc, logr)
	swapSvc := service.NewSwapService(swapRepo, scheduleRepo, memberRepo, memberRepo, rosterSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(rosterSvc, cfg.Exports.Enabled, logr, nil, nil)

	authHandler := handler.NewAuthHandler(authSvc)
	memberHandler := handler.NewMemberHandler(memberSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	swapHandler := handler.NewSwapHandler(swapSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/members", middleware.RequireRoles(models.RoleAdmin), memberHandler.List)
	authed.GET("/members/:id", memberHandler.Get)
	authed.PUT("/members/:id/presence", memberHandler.SetPresence)
	authed.PUT("/members/:id/role", middleware.RequireRoles(models.RoleAdmin), memberHandler.SetRole)

	authed.GET("/roster", rosterHandler.View)
	authed.GET("/roster/mine", rosterHandler.Mine)
	authed.GET("/roster/export",
		middleware.RequireRoles(models.RoleAdmin),
		middleware.Audit(memberRepo, models.AuditActionRosterExport, "roster"),
		exportHandler.Export)

	admin := authed.Group("/schedules")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("", scheduleHandler.Create)
	admin.POST("/:id/reassign", scheduleHandler.Reassign)
	admin.POST("/:id/complete", scheduleHandler.Complete)
	admin.DELETE("/:id", scheduleHandler.Delete)

	authed.GET("/swaps", swapHandler.List)
	authed.POST("/swaps", swapHandler.Create)
	authed.POST("/swaps/:id/respond", swapHandler.Respond)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
