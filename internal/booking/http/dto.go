package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nekogravitycat/auditorium-booking-backend/internal/booking"
)

// BookingResponse is the wire shape of a booking shared with existing clients.
type BookingResponse struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Date              string         `json:"date"`
	StartTime         string         `json:"startTime"`
	EndTime           string         `json:"endTime"`
	OrganizerUserID   string         `json:"organizerUserId"`
	OrganizerName     string         `json:"organizerName"`
	OrganizerEmail    string         `json:"organizerEmail"`
	OrganizerPhone    string         `json:"organizerPhone"`
	Department        string         `json:"department"`
	ExpectedAttendees int            `json:"expectedAttendees"`
	EquipmentNeeded   []string       `json:"equipmentNeeded"`
	Status            booking.Status `json:"status"`
	AdminNotes        string         `json:"adminNotes"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	equipment := b.EquipmentNeeded
	if equipment == nil {
		equipment = []string{}
	}
	return BookingResponse{
		ID:                b.ID,
		Title:             b.Title,
		Description:       b.Description,
		Date:              b.Date,
		StartTime:         b.StartTime,
		EndTime:           b.EndTime,
		OrganizerUserID:   b.OrganizerUserID,
		OrganizerName:     b.OrganizerName,
		OrganizerEmail:    b.OrganizerEmail,
		OrganizerPhone:    b.OrganizerPhone,
		Department:        b.Department,
		ExpectedAttendees: b.ExpectedAttendees,
		EquipmentNeeded:   equipment,
		Status:            b.Status,
		AdminNotes:        b.AdminNotes,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func newBookingResponses(bs []*booking.Booking) []BookingResponse {
	items := make([]BookingResponse, len(bs))
	for i, b := range bs {
		items[i] = NewBookingResponse(b)
	}
	return items
}

// Attendees accepts expectedAttendees as a JSON number, string or null.
type Attendees struct {
	Raw string
	Set bool
}

func (a *Attendees) UnmarshalJSON(data []byte) error {
	a.Set = true
	if string(data) == "null" {
		a.Raw = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		a.Raw = n.String()
		return nil
	}
	return errors.New("expectedAttendees must be a number or a string")
}

// CreateBookingRequest is the body of POST /bookings. Field rules are
// enforced by the booking validators so every problem is reported at once.
type CreateBookingRequest struct {
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Date              string    `json:"date"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	ExpectedAttendees Attendees `json:"expectedAttendees"`
	EquipmentNeeded   []string  `json:"equipmentNeeded"`
}

func (r *CreateBookingRequest) ToInput() booking.Input {
	return booking.Input{
		Title:             r.Title,
		Description:       r.Description,
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		ExpectedAttendees: r.ExpectedAttendees.Raw,
		EquipmentNeeded:   r.EquipmentNeeded,
	}
}

// UpdateBookingRequest is the body of PUT/PATCH /bookings/:id.
// Omitted fields are left unchanged.
type UpdateBookingRequest struct {
	Title             *string   `json:"title"`
	Description       *string   `json:"description"`
	Date              *string   `json:"date"`
	StartTime         *string   `json:"startTime"`
	EndTime           *string   `json:"endTime"`
	ExpectedAttendees Attendees `json:"expectedAttendees"`
	EquipmentNeeded   []string  `json:"equipmentNeeded"`
	AdminNotes        *string   `json:"adminNotes"`
}

func (r *UpdateBookingRequest) ToPatch() booking.Patch {
	p := booking.Patch{
		Title:           r.Title,
		Description:     r.Description,
		Date:            r.Date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		EquipmentNeeded: r.EquipmentNeeded,
		AdminNotes:      r.AdminNotes,
	}
	if r.ExpectedAttendees.Set {
		raw := r.ExpectedAttendees.Raw
		p.ExpectedAttendees = &raw
	}
	return p
}

// TransitionRequest is the optional body of the admin decision endpoints.
type TransitionRequest struct {
	AdminNotes *string `json:"adminNotes"`
}

type ListBookingsRequest struct {
	Status booking.Status `form:"status" binding:"omitempty,oneof=pending approved rejected completed"`
}

// CalendarRequest selects a month (default: current) or a single day.
type CalendarRequest struct {
	Month string `form:"month" binding:"omitempty,datetime=2006-01"`
	Date  string `form:"date"`
}

type StatisticsResponse struct {
	TotalBookings     int    `json:"totalBookings"`
	PendingCount      int    `json:"pendingCount"`
	ApprovedCount     int    `json:"approvedCount"`
	RejectedCount     int    `json:"rejectedCount"`
	MonthlyBookings   int    `json:"monthlyBookings"`
	ScheduledBookings int    `json:"scheduledBookings"`
	Month             string `json:"month"`
}

type DashboardResponse struct {
	Pending    []BookingResponse            `json:"pending"`
	Approved   []BookingResponse            `json:"approved"`
	Rejected   []BookingResponse            `json:"rejected"`
	Statistics StatisticsResponse           `json:"statistics"`
	Conflicts  map[string][]BookingResponse `json:"conflicts"`
}

func NewDashboardResponse(d *booking.Dashboard) DashboardResponse {
	conflicts := make(map[string][]BookingResponse, len(d.Conflicts))
	for id, bs := range d.Conflicts {
		conflicts[id] = newBookingResponses(bs)
	}
	return DashboardResponse{
		Pending:  newBookingResponses(d.Pending),
		Approved: newBookingResponses(d.Approved),
		Rejected: newBookingResponses(d.Rejected),
		Statistics: StatisticsResponse{
			TotalBookings:     d.Counts.Total,
			PendingCount:      d.Counts.Pending,
			ApprovedCount:     d.Counts.Approved,
			RejectedCount:     d.Counts.Rejected,
			MonthlyBookings:   d.Monthly,
			ScheduledBookings: d.Scheduled,
			Month:             d.Month.String(),
		},
		Conflicts: conflicts,
	}
}

type UserStatsResponse struct {
	TotalBookings int `json:"totalBookings"`
	PendingCount  int `json:"pendingCount"`
	ApprovedCount int `json:"approvedCount"`
	RejectedCount int `json:"rejectedCount"`
}
