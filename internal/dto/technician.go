package dto

import "github.com/wrenchworks/dispatch-api/internal/models"

// TechnicianListResponse pairs a roster page with its total count.
type TechnicianListResponse struct {
	Technicians []models.Technician `json:"technicians"`
	Total       int                 `json:"total"`
}

// TechnicianDetail is one technician together with their commitments.
type TechnicianDetail struct {
	Technician  models.Technician             `json:"technician"`
	Tasks       []models.AssignedTask         `json:"tasks"`
	RoadAssists []models.RoadAssistAssignment `json:"road_assists"`
}

// JobListResponse pairs a job page with its total count.
type JobListResponse struct {
	Jobs  []models.Job `json:"jobs"`
	Total int          `json:"total"`
}

// JobDetail is one job with its derived scheduling window, when derivable.
type JobDetail struct {
	Job    models.Job         `json:"job"`
	Window *models.TimeWindow `json:"window,omitempty"`
}
