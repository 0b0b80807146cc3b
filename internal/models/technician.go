package models

import "time"

// TaskStatus enumerates the lifecycle of a technician's committed task.
type TaskStatus string

const (
	TaskStatusScheduled  TaskStatus = "scheduled"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// RoadAssistStatus enumerates the lifecycle of a roadside dispatch commitment.
type RoadAssistStatus string

const (
	RoadAssistStatusPending    RoadAssistStatus = "pending"
	RoadAssistStatusInProgress RoadAssistStatus = "in_progress"
	RoadAssistStatusCompleted  RoadAssistStatus = "completed"
)

// Technician represents a workshop technician synced from the roster service.
type Technician struct {
	ID           string    `db:"id" json:"id"`
	TechnicianID string    `db:"technician_id" json:"technician_id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Specialty    *string   `db:"specialty" json:"specialty,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AssignedTask is a technician's commitment to a service appointment.
// WorkDuration is expressed in days, the shop scheduling unit.
type AssignedTask struct {
	ID           string     `db:"id" json:"id"`
	TechnicianID string     `db:"technician_id" json:"technician_id"`
	JobID        string     `db:"job_id" json:"job_id"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	WorkDuration float64    `db:"work_duration" json:"work_duration"`
	Status       TaskStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// RoadAssistAssignment tracks a technician's roadside dispatch. Conflict
// checking for these is day-granular rather than interval based.
type RoadAssistAssignment struct {
	ID           string           `db:"id" json:"id"`
	TechnicianID string           `db:"technician_id" json:"technician_id"`
	RoadAssistID string           `db:"road_assist_id" json:"road_assist_id"`
	AssignedAt   time.Time        `db:"assigned_at" json:"assigned_at"`
	Status       RoadAssistStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// TechnicianFilter captures filtering options for listing technicians.
type TechnicianFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
