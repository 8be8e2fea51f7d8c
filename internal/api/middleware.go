package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/auth"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/auditorium-booking-backend/internal/user"
)

// RefreshRole replaces the role carried by the token with the stored one,
// so a role change takes effect before the token expires.
// It MUST be used after auth.AuthRequired middleware.
func RefreshRole(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := loadCaller(c, userService); ok {
			c.Next()
		}
	}
}

// RequireAdmin ensures the authenticated user is an admin.
// It MUST be used after auth.AuthRequired middleware. The role is re-read
// from storage so a demotion takes effect before the token expires.
func RequireAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := loadCaller(c, userService)
		if !ok {
			return
		}

		// Check permissions
		if !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}
		c.Next()
	}
}

// loadCaller reads the caller's account and stores its current role in the
// request identity. On failure the request is aborted with a response.
func loadCaller(c *gin.Context, userService user.Service) (*user.User, bool) {
	id := auth.GetIdentity(c)
	if id.UserID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	u, err := userService.GetByID(c.Request.Context(), id.UserID)
	if errors.Is(err, user.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return nil, false
	}

	id.Role = string(u.Role)
	auth.SetIdentity(c, id)
	return u, true
}

// RequestLogger attaches logger to each request context and writes one
// line per request once the handler chain returns.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logger.WithContext(c.Request.Context())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = zerolog.Ctx(c.Request.Context()).Error()
		case status >= http.StatusBadRequest:
			event = zerolog.Ctx(c.Request.Context()).Warn()
		default:
			event = zerolog.Ctx(c.Request.Context()).Info()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
