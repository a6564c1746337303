package handlers

import (
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"supercycler/internal/logger"
	"supercycler/internal/service"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	auth := router.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}

	api := router.Group("/api/v1", h.userIDMiddleware)
	{
		cycle := api.Group("/cycle")
		{
			cycle.POST("/start", h.startCycle)
			cycle.POST("/stop", h.stopCycle)
			cycle.POST("/tick", h.tickCycle)
			// Body example: {"phase":"ON"}
			cycle.POST("/override", h.overridePhase)
			cycle.GET("/status", h.getStatus)
		}
		api.GET("/logs", h.getLogs)
	}

	// Live status stream (HTTP upgrade), same port.
	router.GET("/ws", h.wsConnect)

	return router
}
