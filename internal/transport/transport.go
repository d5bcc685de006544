package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/image-studio/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(imgHandler *ImageHandler, timeout time.Duration) *gin.Engine {
	router := gin.New()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	images := router.Group("/images")
	{
		images.POST("/upload", imgHandler.Info)
		images.POST("/info", imgHandler.Info)

		images.POST("/resize", imgHandler.Resize)
		images.POST("/convert", imgHandler.Convert)
		images.POST("/filters", imgHandler.Filters)
		images.POST("/crop", imgHandler.Crop)
		images.POST("/composite", imgHandler.Composite)
		images.POST("/collage", imgHandler.Collage)
		images.POST("/watermark", imgHandler.Watermark)
		images.POST("/border", imgHandler.Border)
		images.POST("/mask", imgHandler.Mask)
		images.POST("/rotate", imgHandler.Rotate)
		images.POST("/flip", imgHandler.Flip)
		images.POST("/rotate-transform", imgHandler.RotateTransform)
		images.POST("/color", imgHandler.Color)
		images.POST("/colorspace", imgHandler.Colorspace)
		images.POST("/channels", imgHandler.Channels)
		images.POST("/channels/join", imgHandler.JoinChannels)
		images.POST("/thumbnails", imgHandler.Thumbnails)
		images.POST("/remove-background", imgHandler.RemoveBackground)
		images.POST("/remove-background/smart", imgHandler.SmartRemoveBackground)

		images.POST("/pipeline", imgHandler.Pipeline)
		images.POST("/pipeline/async", imgHandler.PipelineAsync)
		images.GET("/tasks/:id", imgHandler.GetTask)

		images.GET("", imgHandler.List)
		images.GET("/download/:filename", imgHandler.Download)
		images.DELETE("/:filename", imgHandler.Delete)

		images.GET("/engine", imgHandler.EngineSettings)
		images.POST("/engine", imgHandler.TuneEngine)
	}

	bgRemoval := router.Group("/bg-removal")
	{
		bgRemoval.POST("/upload", imgHandler.ModelRemoveBackground)
		bgRemoval.GET("/images", imgHandler.List)
		bgRemoval.GET("/images/:filename", imgHandler.Download)
		bgRemoval.DELETE("/images/:filename", imgHandler.Delete)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "image-studio",
		})
	})
	return router
}
