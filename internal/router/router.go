package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uicourseai/courseai-backend/internal/config"
	"github.com/uicourseai/courseai-backend/internal/handler"
	"github.com/uicourseai/courseai-backend/internal/middleware"
	"github.com/uicourseai/courseai-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Query   *handler.QueryHandler
	Catalog *handler.CatalogHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the query route (60 requests per minute per IP):
	// the LLM path makes an outbound call per request.
	queryLimiter := middleware.NewRateLimiter(60, time.Minute)

	api := router.Group("/api/v1")
	{
		api.POST("/query", queryLimiter.Middleware(), handlers.Query.Query)

		catalog := api.Group("/catalog")
		{
			catalog.GET("/subjects", handlers.Catalog.GetSubjects)
			catalog.GET("/semesters", handlers.Catalog.GetSemesters)
		}
	}

	return router
}
