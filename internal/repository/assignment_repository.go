package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wrenchworks/dispatch-api/internal/models"
)

// Sentinel errors so callers can tell which side of the assignment is missing.
var (
	ErrJobNotFound        = errors.New("job not found")
	ErrTechnicianNotFound = errors.New("technician not found")
)

// AssignDecision is what the caller wants committed once the locked state has
// been re-validated.
type AssignDecision struct {
	Window           models.TimeWindow
	WorkDurationDays float64
}

// DecideFunc re-validates availability against the locked records. Returning
// an error aborts the transaction with nothing written.
type DecideFunc func(job *models.Job, tech *models.Technician, tasks []models.AssignedTask, assists []models.RoadAssistAssignment) (AssignDecision, error)

// ConfirmFunc performs the upstream assignment-of-record call for roadside
// jobs. It runs inside the transaction, after validation and before any local
// write, so an upstream failure leaves local state untouched.
type ConfirmFunc func(ctx context.Context) error

// AssignOutcome reports the post-commit state of both sides of an assignment.
type AssignOutcome struct {
	Job        *models.Job
	Technician *models.Technician
	TaskCount  int
}

// AssignmentRepository owns the only write path for job status and technician
// task lists. Requests targeting the same technician serialize on the row
// lock taken here, which is what prevents double-booking across service
// instances.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Assign binds a technician to a job in a single transaction: lock both rows,
// reload the technician's commitments, let decide re-validate, optionally
// confirm with the upstream owner, then write the job and the task list
// together. Row-not-found errors surface as sql.ErrNoRows for the caller to
// map.
func (r *AssignmentRepository) Assign(ctx context.Context, jobExternalID, technicianID string, decide DecideFunc, confirm ConfirmFunc) (*AssignOutcome, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assignment: %w", err)
	}

	job, err := lockJob(ctx, tx, jobExternalID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	tech, err := lockTechnician(ctx, tx, technicianID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	var tasks []models.AssignedTask
	if err := tx.SelectContext(ctx, &tasks,
		`SELECT id, technician_id, job_id, start_date, work_duration, status, created_at, updated_at FROM technician_tasks WHERE technician_id = $1`,
		technicianID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("load technician tasks: %w", err)
	}

	var assists []models.RoadAssistAssignment
	if err := tx.SelectContext(ctx, &assists,
		`SELECT id, technician_id, road_assist_id, assigned_at, status, created_at FROM road_assist_assignments WHERE technician_id = $1`,
		technicianID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("load road assist assignments: %w", err)
	}

	decision, err := decide(job, tech, tasks, assists)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	if confirm != nil {
		if err := confirm(ctx); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, err
		}
	}

	now := time.Now().UTC()
	job.Status = models.JobStatusScheduled
	job.TechnicianID = &tech.TechnicianID
	job.TechnicianName = &tech.FullName
	job.StartDate = &decision.Window.Start
	job.EndDate = &decision.Window.End
	job.UpdatedAt = now

	if _, err := tx.NamedExecContext(ctx,
		`UPDATE jobs SET status = :status, technician_id = :technician_id, technician_name = :technician_name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE external_id = :external_id`,
		job); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("update job %s: %w", jobExternalID, err)
	}

	switch job.Kind {
	case models.JobKindRoadside:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM road_assist_assignments WHERE technician_id = $1 AND road_assist_id = $2`,
			technicianID, jobExternalID); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("clear previous road assist entry: %w", err)
		}
		assist := models.RoadAssistAssignment{
			ID:           uuid.NewString(),
			TechnicianID: technicianID,
			RoadAssistID: jobExternalID,
			AssignedAt:   decision.Window.Start,
			Status:       models.RoadAssistStatusPending,
			CreatedAt:    now,
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO road_assist_assignments (id, technician_id, road_assist_id, assigned_at, status, created_at)
			VALUES (:id, :technician_id, :road_assist_id, :assigned_at, :status, :created_at)`,
			&assist); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("insert road assist entry: %w", err)
		}
	default:
		// Idempotent reassignment: at most one task row per job id.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM technician_tasks WHERE technician_id = $1 AND job_id = $2`,
			technicianID, jobExternalID); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("clear previous task entry: %w", err)
		}
		task := models.AssignedTask{
			ID:           uuid.NewString(),
			TechnicianID: technicianID,
			JobID:        jobExternalID,
			StartDate:    decision.Window.Start,
			WorkDuration: decision.WorkDurationDays,
			Status:       models.TaskStatusScheduled,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO technician_tasks (id, technician_id, job_id, start_date, work_duration, status, created_at, updated_at)
			VALUES (:id, :technician_id, :job_id, :start_date, :work_duration, :status, :created_at, :updated_at)`,
			&task); err != nil {
			tx.Rollback() //nolint:errcheck
			return nil, fmt.Errorf("insert task entry: %w", err)
		}
	}

	var taskCount int
	if err := tx.GetContext(ctx, &taskCount,
		`SELECT COUNT(*) FROM technician_tasks WHERE technician_id = $1`, technicianID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("count technician tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}

	return &AssignOutcome{Job: job, Technician: tech, TaskCount: taskCount}, nil
}

func lockJob(ctx context.Context, tx *sqlx.Tx, externalID string) (*models.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE external_id = $1 FOR UPDATE", jobColumns)
	var job models.Job
	if err := tx.GetContext(ctx, &job, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("lock job %s: %w", externalID, err)
	}
	return &job, nil
}

func lockTechnician(ctx context.Context, tx *sqlx.Tx, technicianID string) (*models.Technician, error) {
	const query = `SELECT id, technician_id, full_name, email, phone, specialty, active, created_at, updated_at FROM technicians WHERE technician_id = $1 FOR UPDATE`
	var tech models.Technician
	if err := tx.GetContext(ctx, &tech, query, technicianID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTechnicianNotFound
		}
		return nil, fmt.Errorf("lock technician %s: %w", technicianID, err)
	}
	return &tech, nil
}
