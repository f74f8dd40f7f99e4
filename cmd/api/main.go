package main

import (
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/retracehq/returns-service/internal/audit"
	"github.com/retracehq/returns-service/internal/behavior"
	"github.com/retracehq/returns-service/internal/returns"
	"github.com/retracehq/returns-service/internal/trust"
	"github.com/retracehq/returns-service/internal/validation"
	"github.com/retracehq/returns-service/pkg/common"
	"github.com/retracehq/returns-service/pkg/config"
	"github.com/retracehq/returns-service/pkg/database"
	"github.com/retracehq/returns-service/pkg/logger"
	"github.com/retracehq/returns-service/pkg/middleware"
	"github.com/retracehq/returns-service/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load("returns-api")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger.Init(cfg.Server.Environment)
	defer logger.Sync()

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Repositories
	auditRepo := audit.NewRepository(db)
	returnsRepo := returns.NewRepository(db)
	behaviorRepo := behavior.NewRepository(db)
	trustRepo := trust.NewRepository(db)

	// Services
	auditService := audit.NewService(auditRepo)
	behaviorService := behavior.NewService(behaviorRepo, redisClient)
	oracle := validation.NewVisionOracle(&cfg.Vision)
	validationService := validation.NewService(oracle, behaviorService, returnsRepo, auditService)
	returnsService := returns.NewService(returnsRepo, auditService, validationService)
	trustService := trust.NewService(trustRepo)

	// Handlers
	auditHandler := audit.NewHandler(auditService)
	behaviorHandler := behavior.NewHandler(behaviorService)
	validationHandler := validation.NewHandler(validationService)
	returnsHandler := returns.NewHandler(returnsService)
	trustHandler := trust.NewHandler(trustService)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, "1.0.0"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1", middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		returnsHandler.RegisterRoutes(api)
		validationHandler.RegisterRoutes(api)
		trustHandler.RegisterRoutes(api, string(returns.RoleApprover))

		api.GET("/behavior/:id", middleware.RequireRole(string(returns.RoleApprover)), behaviorHandler.GetScore)
		api.GET("/audit", middleware.RequireRole(string(returns.RoleApprover)), auditHandler.ListEvents)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Returns service starting on port %s", cfg.Server.Port)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
