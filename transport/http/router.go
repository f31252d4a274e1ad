package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jacobmr/teslatracker/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, vehicleService *service.VehicleService, frontend FrontendConfig, reg *prometheus.Registry) *gin.Engine {
	router := gin.Default()

	metrics := NewMetrics(reg)
	handlers := NewAuthHandlers(authService, vehicleService, frontend, metrics)

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.GET("", handlers.Begin)
		auth.GET("/callback", handlers.Callback)
		auth.POST("/refresh", handlers.Refresh)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
		api.GET("/vehicles", handlers.Vehicles)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return router
}
