package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/menuvision/backend/internal/api"
	"github.com/menuvision/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(menuHandler *api.MenuHandler, rateLimiter *middleware.RateLimiter) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Cache-Control"}
	router.Use(cors.New(corsConfig))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")

	var processMiddleware []gin.HandlerFunc
	if rateLimiter != nil {
		processMiddleware = append(processMiddleware, rateLimiter.RateLimitMiddleware())
	}
	menuHandler.RegisterRoutes(apiGroup, processMiddleware...)

	return router
}
