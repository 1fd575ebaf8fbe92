package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	adminTokenHeader = "X-Admin-Token"
	requestIDHeader  = "X-Request-ID"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.Use(requestLogger(handler.logger))
	router.Use(cors.New(corsConfig(handler.cfg.Server.AllowedOrigins)))

	router.GET("/healthz", handler.Health)
	router.GET("/sitemap.xml", handler.Sitemap)

	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetProperties)
		api.GET("/properties/:slug", handler.GetProperty)
		api.GET("/map", handler.GetMap)
		api.GET("/regions", handler.GetRegions)
		api.GET("/blog-posts", handler.GetBlogPosts)
		api.GET("/blog-posts/:slug", handler.GetBlogPost)
		api.GET("/testimonials", handler.GetTestimonials)
		api.GET("/team-members", handler.GetTeamMembers)
		api.POST("/contact", handler.Contact)
	}

	requireAdmin := adminAuth(handler.cfg.Server.AdminToken)

	admin := router.Group("/api/admin", requireAdmin)
	{
		admin.POST("/properties", handler.CreateProperty)
		admin.GET("/duplicates/check", handler.CheckDuplicates)
		admin.POST("/duplicates/cleanup", handler.CleanupDuplicates)
		admin.POST("/sync", handler.SyncDataset)
		admin.POST("/geocode", handler.RepairCoordinates)
		admin.GET("/insertion-log", handler.GetInsertionLog)
	}

	functions := router.Group("/functions")
	{
		functions.GET("/generate-sitemap", handler.Sitemap)
		functions.POST("/property-chatbot", handler.Chatbot)
		// Rewrites published URLs and spends LLM budget
		functions.POST("/translate-slugs", requireAdmin, handler.TranslateSlugs)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", adminTokenHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	cfg.MaxAge = 12 * time.Hour

	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// adminAuth requires the admin token header when a token is configured
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(adminTokenHeader)), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":  id,
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	}
}
