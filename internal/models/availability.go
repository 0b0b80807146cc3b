package models

import (
	"fmt"
	"time"
)

// TimeWindow is the half-open interval [Start, End) a job occupies for
// conflict purposes. It is derived, never persisted.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return other.Start.Before(w.End) && other.End.After(w.Start)
}

// SameDay reports whether the window starts on the given calendar day in UTC.
func (w TimeWindow) SameDay(t time.Time) bool {
	y1, m1, d1 := w.Start.UTC().Date()
	y2, m2, d2 := t.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// AvailabilityStatus tags the outcome of an availability evaluation.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "AVAILABLE"
	StatusBusy      AvailabilityStatus = "BUSY"
)

// ConflictKind identifies which commitment type caused a conflict.
type ConflictKind string

const (
	ConflictServiceTask ConflictKind = "SERVICE_TASK"
	ConflictRoadAssist  ConflictKind = "ROAD_ASSIST"
)

// Conflict explains why a technician is busy for a candidate window.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	ID     string       `json:"id"`
	Window *TimeWindow  `json:"window,omitempty"`
}

// AvailabilityResult is the single tagged shape shared by the service and
// roadside availability endpoints.
type AvailabilityResult struct {
	Status    AvailabilityStatus `json:"status"`
	Conflicts []Conflict         `json:"conflicts,omitempty"`
}

// AvailabilityError is returned when an assignment collides with existing
// commitments. It travels wrapped inside a typed error so handlers can map it
// to a status while still surfacing the conflict list.
type AvailabilityError struct {
	TechnicianID string     `json:"technician_id"`
	Message      string     `json:"message"`
	Conflicts    []Conflict `json:"conflicts"`
}

// Error implements the error interface.
func (e *AvailabilityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// Available is a convenience accessor.
func (r AvailabilityResult) Available() bool {
	return r.Status == StatusAvailable
}

// Reason renders a short human-readable explanation for a busy technician.
func (r AvailabilityResult) Reason() string {
	if r.Available() || len(r.Conflicts) == 0 {
		return ""
	}
	c := r.Conflicts[0]
	switch c.Kind {
	case ConflictRoadAssist:
		return fmt.Sprintf("dispatched to roadside request %s on the same day", c.ID)
	default:
		if c.Window != nil {
			return fmt.Sprintf("committed to job %s from %s to %s", c.ID,
				c.Window.Start.Format("2006-01-02"), c.Window.End.Format("2006-01-02"))
		}
		return fmt.Sprintf("committed to job %s", c.ID)
	}
}
