package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/dto"
	"github.com/wrenchworks/dispatch-api/internal/models"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

type jobLister interface {
	jobReader
	List(ctx context.Context, filter models.JobFilter) ([]models.Job, int, error)
}

// JobService exposes read access to synced jobs.
type JobService struct {
	jobs   jobLister
	policy WindowPolicy
	logger *zap.Logger
}

// NewJobService creates a service instance.
func NewJobService(jobs jobLister, policy WindowPolicy, logger *zap.Logger) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobService{jobs: jobs, policy: policy, logger: logger}
}

// List returns jobs matching the filter.
func (s *JobService) List(ctx context.Context, filter models.JobFilter) (*dto.JobListResponse, error) {
	jobs, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list jobs")
	}
	return &dto.JobListResponse{Jobs: jobs, Total: total}, nil
}

// Get returns one job with its derived scheduling window. A window that
// cannot be derived is reported as absent, not as an error.
func (s *JobService) Get(ctx context.Context, externalID string) (*dto.JobDetail, error) {
	job, err := s.jobs.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load job")
	}

	detail := &dto.JobDetail{Job: *job}
	if window, werr := ComputeWindow(job, s.policy); werr == nil {
		detail.Window = &window
	} else {
		s.logger.Debug("job window not derivable", zap.String("job_id", externalID), zap.Error(werr))
	}
	return detail, nil
}
