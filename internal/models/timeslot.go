package models

import "time"

// TimeSlot represents a span of time spent on an activity.
// A zero End means the slot is still running.
type TimeSlot struct {
	Timestamps
	Start      time.Time `json:"start"`
	End        time.Time `json:"end,omitzero"`
	ID         string    `json:"id"`
	ActivityID string    `json:"activity_id"`
	Note       string    `json:"note,omitempty"`
}

func (s *TimeSlot) EntityID() string      { return s.ID }
func (s *TimeSlot) SetEntityID(id string) { s.ID = id }

// Running reports whether the slot has not been closed yet.
func (s *TimeSlot) Running() bool {
	return s.End.IsZero()
}

// Duration returns the closed slot length, or the elapsed time since
// Start for a running slot.
func (s *TimeSlot) Duration(now time.Time) time.Duration {
	if s.Running() {
		return now.Sub(s.Start)
	}
	return s.End.Sub(s.Start)
}
