package services

import "time"

// SlotMinutes is the fixed length of every appointment.
const SlotMinutes = 30

// SlotDuration is SlotMinutes as a time.Duration.
const SlotDuration = SlotMinutes * time.Minute

// EndsAt returns the end of the slot starting at start.
func EndsAt(start time.Time) time.Time {
	return start.Add(SlotDuration)
}

// NormalizeStart puts a requested start instant in the form it is stored and compared in:
// UTC, whole seconds. The same instant written with different offsets maps to one slot.
func NormalizeStart(start time.Time) time.Time {
	return start.UTC().Truncate(time.Second)
}
