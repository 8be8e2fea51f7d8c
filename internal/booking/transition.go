package booking

import (
	"strings"
	"time"
)

// transitions holds every legal admin decision. Rejected and completed
// bookings have no way out.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {
		ActionUnapprove: StatusPending,
	},
}

// NextStatus returns the status reached by applying a to from.
func NextStatus(from Status, a Action) (Status, error) {
	to, ok := transitions[from][a]
	if !ok {
		return "", &TransitionError{From: from, Action: a}
	}
	return to, nil
}

// Apply moves b through a. Notes, when given, replace the admin notes.
func Apply(b *Booking, a Action, notes *string, now time.Time) error {
	to, err := NextStatus(b.Status, a)
	if err != nil {
		return err
	}

	b.Status = to
	if notes != nil {
		b.AdminNotes = strings.TrimSpace(*notes)
	}
	b.UpdatedAt = now
	return nil
}
