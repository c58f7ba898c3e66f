package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/docindex-backend/internal/http/handlers"
)

func wireRouter(h Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	router.GET("/search", h.Search.Search)

	router.GET("/documents", h.Document.List)
	router.GET("/documents/:id", h.Document.Get)
	router.GET("/documents/:id/pages", h.Document.Pages)

	router.GET("/images/:page_id", h.Media.PageImage)
	router.GET("/files/:document_id", h.Media.DocumentFile)

	router.GET("/entities", h.Entity.List)
	router.GET("/suggest/entities", h.Entity.SuggestEntities)
	router.GET("/suggest/tokens", h.Entity.SuggestTokens)

	router.GET("/stats", h.Stats.Stats)

	router.POST("/ingest/doj", h.Ingest.Run)
	router.GET("/ingest/doj/preview", h.Ingest.Preview)
	router.GET("/ingest/doj/status", h.Ingest.Status)
	router.POST("/ingest/upload", h.Ingest.Upload)

	return router
}
