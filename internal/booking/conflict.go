package booking

// Overlaps reports whether two same-day windows intersect as half-open
// intervals [start, end). Back-to-back windows do not overlap. Times are
// zero-padded HH:MM, so string order is chronological order.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart < bEnd && aEnd > bStart
}

// FindConflicts returns the approved bookings in pool that share candidate's
// date and overlap its window. candidate itself is never reported.
func FindConflicts(candidate *Booking, pool []*Booking) []*Booking {
	conflicts := make([]*Booking, 0)
	for _, other := range pool {
		if other.Status != StatusApproved {
			continue
		}
		if other.Date != candidate.Date {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts
}
