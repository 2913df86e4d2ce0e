package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jroosing/triedns/internal/api/docs" // swagger docs
	"github.com/jroosing/triedns/internal/api/handlers"
	"github.com/jroosing/triedns/internal/api/middleware"
	"github.com/jroosing/triedns/internal/config"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config, deps handlers.Deps) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus scrape endpoint over the DNS collectors only.
	var gatherer prometheus.Gatherer = prometheus.NewRegistry()
	if reg := deps.Stats.Registry(); reg != nil {
		gatherer = reg
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)
	api.GET("/config", h.GetConfig)

	api.GET("/zone", h.GetZone)
	api.GET("/zone/tree", h.GetZoneTree)
	api.GET("/zone/lookup", h.LookupZone)
}
