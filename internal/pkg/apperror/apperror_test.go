package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapMatchesSentinel(t *testing.T) {
	sentinel := New(http.StatusInternalServerError, "storage error")
	cause := errors.New("connection refused")

	wrapped := Wrap(cause, sentinel.Code, sentinel.Message)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "storage error: connection refused", wrapped.Error())
}

func TestFrom(t *testing.T) {
	notFound := New(http.StatusNotFound, "booking not found")

	got, ok := From(fmt.Errorf("lookup: %w", notFound))
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, got.Code)

	_, ok = From(errors.New("plain"))
	assert.False(t, ok)
}
