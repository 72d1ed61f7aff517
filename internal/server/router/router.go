package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stocklive/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(inventory *handlers.InventoryHandler, live *handlers.LiveHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.POST("/inventory/adjust", inventory.Adjust)
		api.GET("/inventory/:warehouseId/:productId", inventory.Get)
		api.GET("/inventory/:warehouseId/:productId/movements", inventory.Movements)
		api.GET("/ws", live.Serve)
		api.GET("/ws/stats", live.Stats)
	}

	r.POST("/internal/events", live.Trigger)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
