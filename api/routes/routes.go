package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/docforge/uploader/api/handlers"
	"github.com/docforge/uploader/api/middleware"
)

// SetupRoutes registers all routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	uploads := v1.Group("/uploads")
	{
		uploads.POST("", h.Upload.Upload)
		uploads.POST("/batch", h.Upload.UploadBatch)
		uploads.GET("/progress/:jobId", h.Upload.GetProgress)
		uploads.DELETE("/jobs/:jobId", h.Upload.Cancel)
	}
}
