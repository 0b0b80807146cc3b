package dto

import (
	"time"

	"github.com/wrenchworks/dispatch-api/internal/models"
)

// AssignAppointmentRequest binds a technician to a service appointment.
type AssignAppointmentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required"`
	TechnicianID  string `json:"technicianId" validate:"required"`
}

// AssignRoadAssistRequest binds a technician to a roadside request.
type AssignRoadAssistRequest struct {
	TechnicianID string `json:"technicianId" validate:"required"`
}

// JobSummary is the job half of an assignment response.
type JobSummary struct {
	ID             string           `json:"id"`
	Kind           models.JobKind   `json:"kind"`
	Status         models.JobStatus `json:"status"`
	StartDate      *time.Time       `json:"startDate,omitempty"`
	EndDate        *time.Time       `json:"endDate,omitempty"`
	TechnicianID   string           `json:"technicianId,omitempty"`
	TechnicianName string           `json:"technicianName,omitempty"`
}

// TechnicianSummary is the technician half of an assignment response.
type TechnicianSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int    `json:"taskCount"`
}

// AssignmentResponse reports the post-commit state of both sides.
type AssignmentResponse struct {
	Job        JobSummary        `json:"job"`
	Technician TechnicianSummary `json:"technician"`
}

// NewJobSummary maps a job record into its response shape.
func NewJobSummary(job *models.Job) JobSummary {
	summary := JobSummary{
		ID:        job.ExternalID,
		Kind:      job.Kind,
		Status:    job.Status,
		StartDate: job.StartDate,
		EndDate:   job.EndDate,
	}
	if job.TechnicianID != nil {
		summary.TechnicianID = *job.TechnicianID
	}
	if job.TechnicianName != nil {
		summary.TechnicianName = *job.TechnicianName
	}
	return summary
}
