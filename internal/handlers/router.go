package handlers

import (
	"github.com/feedbird/feedbird/backend/internal/sync"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter builds the HTTP surface: the cron trigger, a health probe and
// the Prometheus scrape endpoint.
func SetupRouter(entrypoint *sync.Entrypoint, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// The scheduler may live on another origin and send a preflight
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Authorization", "Content-Type", "X-Client-Info"}
	router.Use(cors.New(corsConfig))

	healthHandler := NewHealthHandler(db)
	cronHandler := NewCronHandler(entrypoint)

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/cron/analytics-sync", cronHandler.RunAnalyticsSync)
	}

	return router
}
