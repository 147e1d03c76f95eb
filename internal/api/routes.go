package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func registerRoutes(r *gin.Engine, h *handlers) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.GET("/interfaces", h.ListInterfaces)
	v1.GET("/interfaces/:name", h.GetInterface)
	v1.GET("/sockets", h.ListSockets)
	v1.POST("/sockets", h.OpenSocket)
	v1.DELETE("/sockets/:fd", h.CloseSocket)
}
