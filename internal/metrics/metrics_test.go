package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestBookingCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingCreated.WithLabelValues("pending"))
	IncBookingCreated("pending")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingCreated.WithLabelValues("pending")))

	before = testutil.ToFloat64(bookingTransition.WithLabelValues("approve", "ok"))
	IncTransition("approve", "ok")
	IncTransition("approve", "invalid_transition")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingTransition.WithLabelValues("approve", "ok")))

	before = testutil.ToFloat64(bookingDeleted)
	IncBookingDeleted()
	assert.Equal(t, before+1, testutil.ToFloat64(bookingDeleted))

	before = testutil.ToFloat64(conflictRejected.WithLabelValues("approve"))
	IncConflictRejected("approve")
	assert.Equal(t, before+1, testutil.ToFloat64(conflictRejected.WithLabelValues("approve")))

	ObserveLockWait(3 * time.Millisecond)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/v1/bookings/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/bookings/:id", "204"))
	unmatched := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/bookings/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/v1/bookings/:id", "204")))
	assert.Equal(t, unmatched+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
