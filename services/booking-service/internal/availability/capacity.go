package availability

// FilterFullSlots removes slots that have reached the group capacity.
//
// It only applies to group meetings; other events pass through untouched.
// The result is advisory for display. Enforcing at most N bookings per slot is
// the booking store's job (see storage.BookingRepository.CreateWithCapacity).
func FilterFullSlots(slots []Slot, occupancy map[string]Occupancy, g GroupMeeting) []Slot {
	if !g.Enabled {
		return slots
	}
	max := g.Capacity()

	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		key, ok := LabelToKey(s.Label)
		if !ok {
			key = s.Time
		}
		occ := occupancy[key]
		if occ.IsFull || occ.Count >= max {
			continue
		}
		if g.ShowRemainingSpots {
			remaining := max - occ.Count
			s.Remaining = &remaining
		}
		out = append(out, s)
	}
	return out
}
