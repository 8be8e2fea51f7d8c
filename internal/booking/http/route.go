package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/booking"
)

func RegisterRoutes(r *gin.RouterGroup, h *BookingHandler, authMiddleware, roleMiddleware, adminMiddleware gin.HandlerFunc) {
	// === Authenticated Routes ===
	// Edit rights depend on the stored role, not the one in the token.
	group := r.Group("/bookings")
	group.Use(authMiddleware, roleMiddleware)
	{
		group.GET("", h.List)
		group.GET("/my", h.ListMine)
		group.GET("/calendar", h.Calendar)
		group.POST("", h.Create)
		group.GET("/:id", h.Get)
		group.PUT("/:id", h.Update)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
		group.GET("/:id/conflicts", h.Conflicts)
	}

	r.GET("/me/stats", authMiddleware, h.MyStats)

	// === Admin Routes ===
	admin := r.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/dashboard", h.Dashboard)
		admin.PATCH("/:id/approve", h.Transition(booking.ActionApprove))
		admin.PATCH("/:id/reject", h.Transition(booking.ActionReject))
		admin.PATCH("/:id/unapprove", h.Transition(booking.ActionUnapprove))
	}
}
