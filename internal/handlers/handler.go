package handlers

import (
	"net/http"

	"shelf/internal/logger"
	"shelf/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  http.Handler
}

// NewHandler constructs a new HTTP handler with dependencies. metrics may be nil.
func NewHandler(services *service.Service, log *logger.Logger, metrics http.Handler) *Handler {
	return &Handler{services: services, log: log, metrics: metrics}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Snapshot stream on the same port; token via header or ?token=
	router.GET("/ws", h.requireUser, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requireUser)
	{
		h.registerHomeRoutes(api)
		h.registerRoomRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerHomeRoutes(api *gin.RouterGroup) {
	home := api.Group("/home")
	{
		home.GET("", h.getHome)
		// Body example: {"on":true}
		home.POST("/power", h.setPower)
		// Body example: {"mode":"COOL"}
		home.POST("/mode", h.setMode)
		home.POST("/master", h.setMaster)
	}
}

func (h *Handler) registerRoomRoutes(api *gin.RouterGroup) {
	rooms := api.Group("/rooms")
	{
		rooms.GET("", h.listRooms)
		rooms.POST("", h.addRoom)
		rooms.PUT("/order", h.reorderRooms)
		rooms.DELETE("/:id", h.deleteRoom)
		rooms.PUT("/:id/name", h.renameRoom)
		rooms.PUT("/:id/target", h.setTarget)
		rooms.PUT("/:id/priority", h.setPriority)
		rooms.POST("/:id/telemetry", h.postTelemetry)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
