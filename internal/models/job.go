package models

import "time"

// JobKind distinguishes a shop service appointment from a roadside request.
type JobKind string

const (
	JobKindService  JobKind = "service"
	JobKindRoadside JobKind = "roadside"
)

// JobStatus enumerates the lifecycle of a job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusRejected   JobStatus = "rejected"
)

// Job is a scheduled unit of work synced from an upstream intake service:
// either a service appointment or a roadside-assistance request. Duration is
// in days for service jobs and hours for roadside jobs.
type Job struct {
	ID             string     `db:"id" json:"id"`
	ExternalID     string     `db:"external_id" json:"external_id"`
	Kind           JobKind    `db:"kind" json:"kind"`
	CustomerRef    *string    `db:"customer_ref" json:"customer_ref,omitempty"`
	VehicleRef     *string    `db:"vehicle_ref" json:"vehicle_ref,omitempty"`
	SuggestedStart *time.Time `db:"suggested_start" json:"suggested_start,omitempty"`
	RequestDate    *time.Time `db:"request_date" json:"request_date,omitempty"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	Duration       *float64   `db:"duration" json:"duration,omitempty"`
	Status         JobStatus  `db:"status" json:"status"`
	TechnicianID   *string    `db:"technician_id" json:"technician_id,omitempty"`
	TechnicianName *string    `db:"technician_name" json:"technician_name,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// JobFilter describes query params for listing jobs.
type JobFilter struct {
	Kind      JobKind
	Status    JobStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
