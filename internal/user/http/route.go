package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *UserHandler, authMiddleware gin.HandlerFunc, adminMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	// === Authenticated Routes ===
	me := r.Group("/me")
	me.Use(authMiddleware)
	{
		me.GET("", h.Me)
		me.PATCH("", h.UpdateMe)
	}

	// === Admin Routes ===
	users := r.Group("/users")
	users.Use(authMiddleware, adminMiddleware)
	{
		users.GET("", h.List)
		users.PATCH("/:id", h.UpdateRole)
	}
}
