package apihandlers

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tmrelay/internal/config"
)

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(cfg *config.Config, h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), RequestLogger(), Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))

	router.GET("/test", h.TestHandler)

	api := router.Group("/api")
	{
		api.GET("/search", h.SearchHandler)
	}

	router.GET("/health", h.HealthHandler)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
