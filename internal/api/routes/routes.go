package routes

import (
	"github.com/custodia-labs/cctp-courier/internal/api/handlers"
	"github.com/custodia-labs/cctp-courier/internal/api/middleware"
	"github.com/custodia-labs/cctp-courier/internal/config"
	"github.com/custodia-labs/cctp-courier/pkg/logger"
	"github.com/custodia-labs/cctp-courier/pkg/tracing"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes. authToken gates the
// transfer endpoints; empty disables auth.
func SetupRoutes(
	cfg *config.Config,
	authToken string,
	runner handlers.TransferRunner,
	solana handlers.ReadinessChecker,
	log *logger.Logger,
) *gin.Engine {
	router := gin.New()

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	coreHandlers := handlers.NewCoreHandlers(solana, log)
	transferHandlers := handlers.NewTransferHandlers(runner, log)

	// Health checks (no auth required)
	router.GET("/health", coreHandlers.Health)
	router.GET("/health/live", coreHandlers.Live)
	router.GET("/health/ready", coreHandlers.Ready)
	router.GET("/version", coreHandlers.Version)
	router.GET("/metrics", coreHandlers.Metrics)

	// Transfer routes, gated by the static bearer token when one is set
	v1 := router.Group("/v1")
	v1.Use(middleware.BearerAuth(authToken))
	{
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandlers.CreateTransfer)
			transfers.POST("/resume", transferHandlers.ResumeTransfer)
			transfers.GET("/latest", transferHandlers.GetLatestTransfer)
		}
	}

	return router
}
