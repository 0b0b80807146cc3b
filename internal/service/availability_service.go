package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/dto"
	"github.com/wrenchworks/dispatch-api/internal/models"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

type technicianReader interface {
	List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error)
	FindByTechnicianID(ctx context.Context, technicianID string) (*models.Technician, error)
	ListTasks(ctx context.Context, technicianID string) ([]models.AssignedTask, error)
	ListRoadAssists(ctx context.Context, technicianID string) ([]models.RoadAssistAssignment, error)
}

type jobReader interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Job, error)
}

// AvailabilityService evaluates technician availability against candidate job
// windows and produces deterministic listings for the dispatch dashboards.
type AvailabilityService struct {
	technicians technicianReader
	jobs        jobReader
	cache       *CacheService
	metrics     *MetricsService
	policy      WindowPolicy
	logger      *zap.Logger
}

// NewAvailabilityService creates a service instance.
func NewAvailabilityService(
	technicians technicianReader,
	jobs jobReader,
	cache *CacheService,
	metrics *MetricsService,
	policy WindowPolicy,
	logger *zap.Logger,
) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		technicians: technicians,
		jobs:        jobs,
		cache:       cache,
		metrics:     metrics,
		policy:      policy,
		logger:      logger,
	}
}

// Evaluate decides whether the technician can take a job occupying the
// candidate window. Service tasks are checked with half-open interval overlap;
// roadside dispatches with calendar-day comparison in UTC, because roadside
// jobs are dispatched ad hoc within a day. Tasks whose window cannot be
// derived are skipped rather than failing the evaluation: upstream data is
// synced from another service and may be stale or incomplete.
func Evaluate(
	tasks []models.AssignedTask,
	assists []models.RoadAssistAssignment,
	window models.TimeWindow,
	excludeJobID string,
	logger *zap.Logger,
) models.AvailabilityResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	var conflicts []models.Conflict

	for _, task := range tasks {
		if task.Status == models.TaskStatusCompleted {
			continue
		}
		if excludeJobID != "" && task.JobID == excludeJobID {
			continue
		}
		taskWindow, err := TaskWindow(task)
		if err != nil {
			logger.Warn("skipping task with unusable window",
				zap.String("job_id", task.JobID),
				zap.String("technician_id", task.TechnicianID),
				zap.Error(err))
			continue
		}
		if taskWindow.Overlaps(window) {
			conflicts = append(conflicts, models.Conflict{
				Kind:   models.ConflictServiceTask,
				ID:     task.JobID,
				Window: &taskWindow,
			})
		}
	}

	for _, assist := range assists {
		if assist.Status != models.RoadAssistStatusPending && assist.Status != models.RoadAssistStatusInProgress {
			continue
		}
		if excludeJobID != "" && assist.RoadAssistID == excludeJobID {
			continue
		}
		if window.SameDay(assist.AssignedAt) {
			conflicts = append(conflicts, models.Conflict{
				Kind: models.ConflictRoadAssist,
				ID:   assist.RoadAssistID,
			})
		}
	}

	if len(conflicts) > 0 {
		return models.AvailabilityResult{Status: models.StatusBusy, Conflicts: conflicts}
	}
	return models.AvailabilityResult{Status: models.StatusAvailable}
}

// ListForJob evaluates every active technician against the job's window and
// returns a listing sorted available-first, then alphabetically by name.
func (s *AvailabilityService) ListForJob(ctx context.Context, jobExternalID string) (*dto.AvailabilityListResponse, error) {
	if strings.TrimSpace(jobExternalID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "job id is required")
	}

	cacheKey := availabilityCacheKey(jobExternalID)
	if s.cache.Enabled() {
		var cached dto.AvailabilityListResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	job, err := s.jobs.FindByExternalID(ctx, jobExternalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load job")
	}

	window, err := ComputeWindow(job, s.policy)
	if err != nil {
		return nil, err
	}

	active := true
	technicians, _, err := s.technicians.List(ctx, models.TechnicianFilter{Active: &active, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list technicians")
	}

	items := make([]dto.TechnicianAvailability, 0, len(technicians))
	for _, tech := range technicians {
		result, evalErr := s.evaluateTechnician(ctx, tech, window, job.ExternalID)
		if evalErr != nil {
			s.logger.Warn("skipping technician, commitments unavailable",
				zap.String("technician_id", tech.TechnicianID), zap.Error(evalErr))
			continue
		}
		items = append(items, dto.TechnicianAvailability{
			ID:        tech.TechnicianID,
			Name:      tech.FullName,
			Available: result.Available(),
			Reason:    result.Reason(),
			Conflicts: result.Conflicts,
		})
	}

	sortAvailability(items)

	resp := &dto.AvailabilityListResponse{
		JobID:       job.ExternalID,
		Window:      window,
		Technicians: items,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, 0); err != nil {
			s.logger.Warn("failed to cache availability listing", zap.Error(err))
		}
	}

	return resp, nil
}

func (s *AvailabilityService) evaluateTechnician(ctx context.Context, tech models.Technician, window models.TimeWindow, excludeJobID string) (models.AvailabilityResult, error) {
	tasks, err := s.technicians.ListTasks(ctx, tech.TechnicianID)
	if err != nil {
		return models.AvailabilityResult{}, fmt.Errorf("list tasks: %w", err)
	}
	assists, err := s.technicians.ListRoadAssists(ctx, tech.TechnicianID)
	if err != nil {
		return models.AvailabilityResult{}, fmt.Errorf("list road assists: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordAvailabilityEvaluation()
	}
	return Evaluate(tasks, assists, window, excludeJobID, s.logger), nil
}

func sortAvailability(items []dto.TechnicianAvailability) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Available != items[j].Available {
			return items[i].Available
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}

func availabilityCacheKey(jobID string) string {
	return "availability:job:" + jobID
}
