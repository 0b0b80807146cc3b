package dto

import "github.com/wrenchworks/dispatch-api/internal/models"

// TechnicianAvailability is one row of an availability listing. Rows are
// ordered available-first, then alphabetically, for stable UI presentation.
type TechnicianAvailability struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
	Conflicts []models.Conflict `json:"conflicts,omitempty"`
}

// AvailabilityListResponse wraps the listing together with the window it was
// evaluated against.
type AvailabilityListResponse struct {
	JobID       string                   `json:"jobId"`
	Window      models.TimeWindow        `json:"window"`
	Technicians []TechnicianAvailability `json:"technicians"`
}
