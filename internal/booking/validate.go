package booking

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Input is a booking request as submitted by a user. ExpectedAttendees is kept
// raw so that clients sending strings and clients sending numbers coerce alike.
type Input struct {
	Title             string
	Description       string
	Date              string
	StartTime         string
	EndTime           string
	ExpectedAttendees string
	EquipmentNeeded   []string
}

// Patch is a partial edit. Nil fields are left unchanged; a non-nil empty
// EquipmentNeeded clears the list.
type Patch struct {
	Title             *string
	Description       *string
	Date              *string
	StartTime         *string
	EndTime           *string
	ExpectedAttendees *string
	EquipmentNeeded   []string
	AdminNotes        *string
}

// ValidateNewBooking checks in and builds a pending booking owned by org.
func ValidateNewBooking(in Input, org Organizer, now time.Time) (*Booking, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields["title"] = "required"
	}

	date, err := ParseDate(in.Date)
	if err != nil {
		fields["date"] = err.Error()
	}
	start, err := ParseClock(in.StartTime)
	if err != nil {
		fields["startTime"] = err.Error()
	}
	end, err := ParseClock(in.EndTime)
	if err != nil {
		fields["endTime"] = err.Error()
	}
	if start != "" && end != "" && start >= end {
		fields["endTime"] = "must be after startTime"
	}

	attendees, err := ParseAttendees(in.ExpectedAttendees)
	if err != nil {
		fields["expectedAttendees"] = err.Error()
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return &Booking{
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Date:              date,
		StartTime:         start,
		EndTime:           end,
		OrganizerUserID:   org.UserID,
		OrganizerName:     org.Name,
		OrganizerEmail:    org.Email,
		OrganizerPhone:    org.Phone,
		Department:        org.Department,
		ExpectedAttendees: attendees,
		EquipmentNeeded:   NormalizeEquipment(in.EquipmentNeeded),
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ApplyPatch validates p against b and writes it into b. On error b is untouched.
func ApplyPatch(b *Booking, p Patch, now time.Time) error {
	next := b.Clone()
	fields := map[string]string{}

	if p.Title != nil {
		if t := strings.TrimSpace(*p.Title); t == "" {
			fields["title"] = "required"
		} else {
			next.Title = t
		}
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		if d, err := ParseDate(*p.Date); err != nil {
			fields["date"] = err.Error()
		} else {
			next.Date = d
		}
	}
	if p.StartTime != nil {
		if s, err := ParseClock(*p.StartTime); err != nil {
			fields["startTime"] = err.Error()
		} else {
			next.StartTime = s
		}
	}
	if p.EndTime != nil {
		if e, err := ParseClock(*p.EndTime); err != nil {
			fields["endTime"] = err.Error()
		} else {
			next.EndTime = e
		}
	}
	if _, bad := fields["startTime"]; !bad {
		if _, bad := fields["endTime"]; !bad && next.StartTime >= next.EndTime {
			fields["endTime"] = "must be after startTime"
		}
	}
	if p.ExpectedAttendees != nil {
		if n, err := ParseAttendees(*p.ExpectedAttendees); err != nil {
			fields["expectedAttendees"] = err.Error()
		} else {
			next.ExpectedAttendees = n
		}
	}
	if p.EquipmentNeeded != nil {
		next.EquipmentNeeded = NormalizeEquipment(p.EquipmentNeeded)
	}
	if p.AdminNotes != nil {
		next.AdminNotes = strings.TrimSpace(*p.AdminNotes)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	next.UpdatedAt = now
	*b = *next
	return nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date. A timestamp keeps the date of its own offset, so
// "2025-11-20T00:00:00.000Z" is 2025-11-20 regardless of server zone.
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("required")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(dateLayout), nil
	}
	return "", errors.New("must be a date formatted YYYY-MM-DD")
}

// ParseClock accepts H:MM or HH:MM on a 24 hour clock and returns HH:MM.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("required")
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return "", errors.New("must be a time formatted HH:MM")
	}
	return t.Format(clockLayout), nil
}

// ParseAttendees reads the leading integer of s. Text without leading digits
// counts as 0; an empty value or a negative count is rejected.
func ParseAttendees(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("required")
	}

	i := 0
	if s[0] == '+' || s[0] == '-' {
		i = 1
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, nil
	}

	n, err := strconv.ParseInt(s[:j], 10, 64)
	if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, errors.New("out of range")
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return int(n), nil
}

// NormalizeEquipment trims labels, drops empties and duplicates, keeping first-seen order.
func NormalizeEquipment(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
