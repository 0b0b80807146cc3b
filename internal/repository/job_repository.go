package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wrenchworks/dispatch-api/internal/models"
)

// JobRepository provides persistence for synced jobs.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = "id, external_id, kind, customer_ref, vehicle_ref, suggested_start, request_date, start_date, end_date, duration, status, technician_id, technician_name, created_at, updated_at"

// List returns jobs with optional filtering and pagination.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error) {
	base := "FROM jobs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"suggested_start": true,
		"request_date":    true,
		"created_at":      true,
		"updated_at":      true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", jobColumns, base, sortBy, order, size, offset)
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	return jobs, total, nil
}

// FindByExternalID loads a job by its upstream id.
func (r *JobRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE external_id = $1", jobColumns)
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, externalID); err != nil {
		return nil, err
	}
	return &job, nil
}

// Upsert inserts or refreshes a synced job by external id. Upstream-owned
// fields are overwritten; the technician binding and, once a technician is
// bound, the status stay local because the upstream does not know about them.
func (r *JobRepository) Upsert(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	const query = `
INSERT INTO jobs (id, external_id, kind, customer_ref, vehicle_ref, suggested_start, request_date, start_date, end_date, duration, status, technician_id, technician_name, created_at, updated_at)
VALUES (:id, :external_id, :kind, :customer_ref, :vehicle_ref, :suggested_start, :request_date, :start_date, :end_date, :duration, :status, :technician_id, :technician_name, :created_at, :updated_at)
ON CONFLICT (external_id) DO UPDATE
SET customer_ref = EXCLUDED.customer_ref,
    vehicle_ref = EXCLUDED.vehicle_ref,
    suggested_start = EXCLUDED.suggested_start,
    request_date = EXCLUDED.request_date,
    duration = EXCLUDED.duration,
    status = CASE WHEN jobs.technician_id IS NULL THEN EXCLUDED.status ELSE jobs.status END,
    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("upsert job %s: %w", job.ExternalID, err)
	}
	return nil
}
