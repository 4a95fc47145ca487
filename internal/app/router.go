package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"helpme/internal/handler"
	"helpme/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler     *handler.AuthHandler
	LocationHandler *handler.LocationHandler
	ContactsHandler *handler.ContactsHandler
	AlertHandler    *handler.AlertHandler
	UserHandler     *handler.UserHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
	JWTSecret       string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRequired := middleware.AuthRequired(deps.JWTSecret)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		otp := v1.Group("/otp")
		{
			otp.POST("/request", deps.AuthHandler.RequestOTP)
			otp.POST("/verify", deps.AuthHandler.VerifyOTP)
		}

		location := v1.Group("/location", authRequired)
		{
			location.PUT("/update", deps.LocationHandler.Update)
			location.POST("/nearby", deps.LocationHandler.Nearby)
		}

		contacts := v1.Group("/contacts", authRequired)
		{
			contacts.GET("", deps.ContactsHandler.Get)
			contacts.POST("", deps.ContactsHandler.Replace)
		}

		alert := v1.Group("/alert", authRequired)
		{
			alert.POST("/emergency", middleware.AlertIdempotency(middleware.NewRedisReplyStore(deps.RedisClient)), deps.AlertHandler.Emergency)
		}

		v1.GET("/me", authRequired, deps.UserHandler.Me)
		v1.GET("/notifications", authRequired, deps.UserHandler.Notifications)
		v1.GET("/users/:id", deps.UserHandler.GetByID)
	}

	return router
}
