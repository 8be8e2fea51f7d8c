package booking

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Counts is a status breakdown of a booking collection.
type Counts struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// CountByStatus tallies bookings. Completed bookings only count toward Total.
func CountByStatus(bookings []*Booking) Counts {
	var c Counts
	for _, b := range bookings {
		c.Total++
		switch b.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// CountForUser counts bookings whose organizer email matches, ignoring case.
func CountForUser(bookings []*Booking, email string) int {
	email = strings.TrimSpace(email)
	n := 0
	for _, b := range bookings {
		if strings.EqualFold(b.OrganizerEmail, email) {
			n++
		}
	}
	return n
}

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth reads YYYY-MM.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// FirstDay is the first date of the month, YYYY-MM-DD.
func (m YearMonth) FirstDay() string {
	return m.String() + "-01"
}

// Next is the following calendar month.
func (m YearMonth) Next() YearMonth {
	return MonthOf(time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// ContainsDate reports whether a YYYY-MM-DD date falls in m.
func (m YearMonth) ContainsDate(date string) bool {
	return strings.HasPrefix(date, m.String()+"-")
}

// MonthlyCount counts bookings submitted in m, judged by createdAt in UTC.
// This is the submission month, not the event month.
func MonthlyCount(bookings []*Booking, m YearMonth) int {
	n := 0
	for _, b := range bookings {
		if MonthOf(b.CreatedAt.UTC()) == m {
			n++
		}
	}
	return n
}

// BookingsForDay returns the bookings held on date. date may be anything
// ParseDate accepts; an unparseable date matches nothing.
func BookingsForDay(bookings []*Booking, date string) []*Booking {
	out := make([]*Booking, 0)
	day, err := ParseDate(date)
	if err != nil {
		return out
	}
	for _, b := range bookings {
		if d, err := ParseDate(b.Date); err == nil && d == day {
			out = append(out, b)
		}
	}
	return out
}

// BookingsForMonth returns the bookings held during m.
func BookingsForMonth(bookings []*Booking, m YearMonth) []*Booking {
	out := make([]*Booking, 0)
	for _, b := range bookings {
		if m.ContainsDate(b.Date) {
			out = append(out, b)
		}
	}
	return out
}

// SortForAdmin orders an admin bucket in place: approved bookings newest
// date first, every other status oldest date first, then by start time.
// The sort is stable so equal keys keep insertion order.
func SortForAdmin(bookings []*Booking, status Status) {
	desc := status == StatusApproved
	slices.SortStableFunc(bookings, func(a, b *Booking) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			if desc {
				return -c
			}
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
}

// Buckets splits bookings by status into admin lists, each in admin order.
// Completed bookings are left out.
func Buckets(bookings []*Booking) (pending, approved, rejected []*Booking) {
	pending, approved, rejected = make([]*Booking, 0), make([]*Booking, 0), make([]*Booking, 0)
	for _, b := range bookings {
		switch b.Status {
		case StatusPending:
			pending = append(pending, b)
		case StatusApproved:
			approved = append(approved, b)
		case StatusRejected:
			rejected = append(rejected, b)
		}
	}
	SortForAdmin(pending, StatusPending)
	SortForAdmin(approved, StatusApproved)
	SortForAdmin(rejected, StatusRejected)
	return pending, approved, rejected
}
