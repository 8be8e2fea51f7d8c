package booking

import (
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrValidation        = apperror.New(http.StatusBadRequest, "invalid booking")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "invalid status transition")
	ErrTimeConflict      = apperror.New(http.StatusConflict, "time slot overlaps an approved booking")
	ErrForbidden         = apperror.New(http.StatusForbidden, "permission denied")
	ErrBusy              = apperror.New(http.StatusServiceUnavailable, "booking is being modified, try again")
	ErrStorage           = apperror.New(http.StatusInternalServerError, "storage error")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusCompleted is accepted from storage but nothing transitions into it.
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Action is an admin decision applied to a booking.
type Action string

const (
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionUnapprove Action = "unapprove"
)

// Booking is a request to reserve the auditorium on one date.
// Date is YYYY-MM-DD; StartTime and EndTime are zero-padded HH:MM.
type Booking struct {
	ID          string
	Title       string
	Description string
	Date        string
	StartTime   string
	EndTime     string

	// Organizer fields are copied from the user at creation and never refreshed.
	OrganizerUserID string
	OrganizerName   string
	OrganizerEmail  string
	OrganizerPhone  string
	Department      string

	ExpectedAttendees int
	EquipmentNeeded   []string
	Status            Status
	AdminNotes        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy of b.
func (b *Booking) Clone() *Booking {
	c := *b
	c.EquipmentNeeded = slices.Clone(b.EquipmentNeeded)
	return &c
}

// Organizer is the snapshot of the requesting user stored on a booking.
type Organizer struct {
	UserID     string
	Name       string
	Email      string
	Phone      string
	Department string
}

// Requester is the authenticated caller of a service operation.
type Requester struct {
	UserID string
	Admin  bool
}

// Filter selects bookings from storage. Zero fields are ignored.
type Filter struct {
	OrganizerUserID string
	Status          Status
	Date            string
	Month           *YearMonth
}

// ValidationError lists the offending fields of a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return ErrValidation.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) Details() any { return e.Fields }

// TransitionError reports an action that is not legal from the current status.
type TransitionError struct {
	From   Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s a %s booking", ErrInvalidTransition.Message, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func (e *TransitionError) Details() any {
	return map[string]string{"from": string(e.From), "action": string(e.Action)}
}

// ConflictError carries the approved bookings that overlap the candidate.
type ConflictError struct {
	Conflicts []*Booking
}

// ConflictRef is the client-facing summary of one overlapping booking.
type ConflictRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, b := range e.Conflicts {
		ids[i] = b.ID
	}
	return ErrTimeConflict.Message + ": " + strings.Join(ids, ", ")
}

func (e *ConflictError) Unwrap() error { return ErrTimeConflict }

func (e *ConflictError) Details() any {
	refs := make([]ConflictRef, len(e.Conflicts))
	for i, b := range e.Conflicts {
		refs[i] = ConflictRef{ID: b.ID, Title: b.Title, Date: b.Date, StartTime: b.StartTime, EndTime: b.EndTime}
	}
	return map[string]any{"conflicts": refs}
}
