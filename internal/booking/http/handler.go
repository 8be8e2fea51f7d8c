package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/auth"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/booking"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/user"
)

type BookingHandler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *BookingHandler {
	return &BookingHandler{service: service}
}

func requester(c *gin.Context) booking.Requester {
	return booking.Requester{
		UserID: auth.GetUserID(c),
		Admin:  auth.GetUserRole(c) == string(user.RoleAdmin),
	}
}

// List returns every booking, optionally narrowed to one status.
func (h *BookingHandler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query", err)
		return
	}

	bookings, err := h.service.ListAll(c.Request.Context(), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newBookingResponses(bookings)))
}

// ListMine returns the caller's own bookings.
func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.service.ListForUser(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newBookingResponses(bookings)))
}

// Calendar returns one month of bookings, or one day when date is given.
func (h *BookingHandler) Calendar(c *gin.Context) {
	var req CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query", err)
		return
	}

	ctx := c.Request.Context()
	var (
		bookings []*booking.Booking
		err      error
	)
	if req.Date != "" {
		bookings, err = h.service.ListForDay(ctx, req.Date)
	} else {
		month := booking.MonthOf(time.Now())
		if req.Month != "" {
			month, err = booking.ParseYearMonth(req.Month)
			if err != nil {
				response.BadRequest(c, "invalid month", err)
				return
			}
		}
		bookings, err = h.service.ListForMonth(ctx, month)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newBookingResponses(bookings)))
}

// Create submits a new pending booking for the caller.
func (h *BookingHandler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), requester(c), body.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Update edits a booking. Owners may edit pending requests; admins anything.
func (h *BookingHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	var body UpdateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), uri.ID, requester(c), body.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Delete withdraws the caller's pending booking.
func (h *BookingHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID, requester(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Conflicts lists the approved bookings overlapping this one.
func (h *BookingHandler) Conflicts(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid booking id", err)
		return
	}

	conflicts, err := h.service.Conflicts(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newBookingResponses(conflicts)))
}

// Transition returns the handler for one admin decision.
func (h *BookingHandler) Transition(action booking.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uri request.ByIDRequest
		if err := c.ShouldBindUri(&uri); err != nil {
			response.BadRequest(c, "invalid booking id", err)
			return
		}

		// The body is optional.
		var body TransitionRequest
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(c, "invalid request body", err)
			return
		}

		b, err := h.service.Transition(c.Request.Context(), uri.ID, requester(c), action, body.AdminNotes)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, NewBookingResponse(b))
	}
}

// Dashboard is the admin overview for a month (default: current).
func (h *BookingHandler) Dashboard(c *gin.Context) {
	var q request.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query", err)
		return
	}

	month := booking.MonthOf(time.Now())
	if q.Month != "" {
		var err error
		if month, err = booking.ParseYearMonth(q.Month); err != nil {
			response.BadRequest(c, "invalid month", err)
			return
		}
	}

	d, err := h.service.Dashboard(c.Request.Context(), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDashboardResponse(d))
}

// MyStats reports the caller's booking counts.
func (h *BookingHandler) MyStats(c *gin.Context) {
	counts, err := h.service.UserStats(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, UserStatsResponse{
		TotalBookings: counts.Total,
		PendingCount:  counts.Pending,
		ApprovedCount: counts.Approved,
		RejectedCount: counts.Rejected,
	})
}
