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

// TechnicianRepository manages persistence for technicians and their
// committed work.
type TechnicianRepository struct {
	db *sqlx.DB
}

// NewTechnicianRepository constructs a TechnicianRepository.
func NewTechnicianRepository(db *sqlx.DB) *TechnicianRepository {
	return &TechnicianRepository{db: db}
}

// List returns technicians matching filters along with total count.
func (r *TechnicianRepository) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error) {
	base := "FROM technicians WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d OR LOWER(COALESCE(specialty, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "full_name"
	}
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "full_name"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, technician_id, full_name, email, phone, specialty, active, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, column, order, size, offset)
	var technicians []models.Technician
	if err := r.db.SelectContext(ctx, &technicians, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list technicians: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count technicians: %w", err)
	}

	return technicians, total, nil
}

// FindByTechnicianID fetches a technician by external id.
func (r *TechnicianRepository) FindByTechnicianID(ctx context.Context, technicianID string) (*models.Technician, error) {
	const query = `SELECT id, technician_id, full_name, email, phone, specialty, active, created_at, updated_at FROM technicians WHERE technician_id = $1`
	var tech models.Technician
	if err := r.db.GetContext(ctx, &tech, query, technicianID); err != nil {
		return nil, err
	}
	return &tech, nil
}

// ListTasks returns a technician's service task commitments.
func (r *TechnicianRepository) ListTasks(ctx context.Context, technicianID string) ([]models.AssignedTask, error) {
	const query = `SELECT id, technician_id, job_id, start_date, work_duration, status, created_at, updated_at FROM technician_tasks WHERE technician_id = $1 ORDER BY start_date ASC`
	var tasks []models.AssignedTask
	if err := r.db.SelectContext(ctx, &tasks, query, technicianID); err != nil {
		return nil, fmt.Errorf("list technician tasks: %w", err)
	}
	return tasks, nil
}

// ListRoadAssists returns a technician's roadside dispatch commitments.
func (r *TechnicianRepository) ListRoadAssists(ctx context.Context, technicianID string) ([]models.RoadAssistAssignment, error) {
	const query = `SELECT id, technician_id, road_assist_id, assigned_at, status, created_at FROM road_assist_assignments WHERE technician_id = $1 ORDER BY assigned_at ASC`
	var assists []models.RoadAssistAssignment
	if err := r.db.SelectContext(ctx, &assists, query, technicianID); err != nil {
		return nil, fmt.Errorf("list road assist assignments: %w", err)
	}
	return assists, nil
}

// ReplaceAll swaps the whole roster for the upstream snapshot in a single
// transaction so concurrent readers never observe an empty roster. The roster
// is fully owned by the upstream source; existing technician rows and their
// task lists are replaced by whatever the snapshot carries.
func (r *TechnicianRepository) ReplaceAll(ctx context.Context, technicians []models.Technician, tasks []models.AssignedTask) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin roster replace: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM technician_tasks`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear technician tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM road_assist_assignments`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear road assist assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM technicians`); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear technicians: %w", err)
	}

	now := time.Now().UTC()

	const insertTech = `INSERT INTO technicians (id, technician_id, full_name, email, phone, specialty, active, created_at, updated_at)
		VALUES (:id, :technician_id, :full_name, :email, :phone, :specialty, :active, :created_at, :updated_at)`
	for i := range technicians {
		tech := &technicians[i]
		if tech.ID == "" {
			tech.ID = uuid.NewString()
		}
		if tech.CreatedAt.IsZero() {
			tech.CreatedAt = now
		}
		tech.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertTech, tech); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert technician %s: %w", tech.TechnicianID, err)
		}
	}

	const insertTask = `INSERT INTO technician_tasks (id, technician_id, job_id, start_date, work_duration, status, created_at, updated_at)
		VALUES (:id, :technician_id, :job_id, :start_date, :work_duration, :status, :created_at, :updated_at)`
	for i := range tasks {
		task := &tasks[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		task.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertTask, task); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert task for %s: %w", task.TechnicianID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roster replace: %w", err)
	}
	return nil
}
