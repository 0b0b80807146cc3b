package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/dto"
	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/repository"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

type assignmentStore interface {
	Assign(ctx context.Context, jobExternalID, technicianID string, decide repository.DecideFunc, confirm repository.ConfirmFunc) (*repository.AssignOutcome, error)
}

type roadsideOwner interface {
	AssignRoadside(ctx context.Context, roadAssistID, technicianID string) error
}

// AssignmentService owns all mutation of job status and technician task
// lists. Availability is re-validated inside the storage transaction so a
// concurrent assignment that committed in between is always observed.
type AssignmentService struct {
	store     assignmentStore
	roadside  roadsideOwner
	cache     *CacheService
	metrics   *MetricsService
	policy    WindowPolicy
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService creates a service instance.
func NewAssignmentService(
	store assignmentStore,
	roadside roadsideOwner,
	cache *CacheService,
	metrics *MetricsService,
	policy WindowPolicy,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		store:     store,
		roadside:  roadside,
		cache:     cache,
		metrics:   metrics,
		policy:    policy,
		validator: validate,
		logger:    logger,
	}
}

// AssignAppointment atomically binds a technician to a service appointment.
func (s *AssignmentService) AssignAppointment(ctx context.Context, req dto.AssignAppointmentRequest) (*dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	outcome, err := s.store.Assign(ctx, req.AppointmentID, req.TechnicianID, s.decideFor(models.JobKindService, req.TechnicianID), nil)
	if err != nil {
		s.recordFailure(models.JobKindService, err)
		return nil, s.mapAssignError(err)
	}

	s.metrics.RecordAssignment(string(models.JobKindService), "assigned")
	s.cache.InvalidateAvailability(ctx)
	s.logger.Info("appointment assigned",
		zap.String("job_id", req.AppointmentID),
		zap.String("technician_id", req.TechnicianID))

	return assignmentResponse(outcome), nil
}

// AssignRoadAssist binds a technician to a roadside request. The canonical
// roadside owner is informed first; local state is only written once that
// call succeeds.
func (s *AssignmentService) AssignRoadAssist(ctx context.Context, roadAssistID string, req dto.AssignRoadAssistRequest) (*dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	confirm := func(callCtx context.Context) error {
		return s.roadside.AssignRoadside(callCtx, roadAssistID, req.TechnicianID)
	}

	outcome, err := s.store.Assign(ctx, roadAssistID, req.TechnicianID, s.decideFor(models.JobKindRoadside, req.TechnicianID), confirm)
	if err != nil {
		s.recordFailure(models.JobKindRoadside, err)
		return nil, s.mapAssignError(err)
	}

	s.metrics.RecordAssignment(string(models.JobKindRoadside), "assigned")
	s.cache.InvalidateAvailability(ctx)
	s.logger.Info("roadside request assigned",
		zap.String("road_assist_id", roadAssistID),
		zap.String("technician_id", req.TechnicianID))

	return assignmentResponse(outcome), nil
}

// decideFor re-validates availability against the locked records using the
// job's current fields, never client-supplied ones.
func (s *AssignmentService) decideFor(kind models.JobKind, technicianID string) repository.DecideFunc {
	return func(job *models.Job, tech *models.Technician, tasks []models.AssignedTask, assists []models.RoadAssistAssignment) (repository.AssignDecision, error) {
		if job.Kind != kind {
			return repository.AssignDecision{}, appErrors.Clone(appErrors.ErrValidation,
				"job kind does not match this endpoint")
		}
		if !tech.Active {
			return repository.AssignDecision{}, appErrors.Clone(appErrors.ErrValidation, "technician is inactive")
		}

		window, err := ComputeWindow(job, s.policy)
		if err != nil {
			return repository.AssignDecision{}, err
		}

		result := Evaluate(tasks, assists, window, job.ExternalID, s.logger)
		if !result.Available() {
			detail := &models.AvailabilityError{
				TechnicianID: technicianID,
				Message:      "technician has conflicting commitments for the requested window",
				Conflicts:    result.Conflicts,
			}
			return repository.AssignDecision{}, appErrors.Wrap(detail,
				appErrors.ErrTechnicianBusy.Code, appErrors.ErrTechnicianBusy.Status, detail.Message)
		}

		return repository.AssignDecision{
			Window:           window,
			WorkDurationDays: window.End.Sub(window.Start).Hours() / 24,
		}, nil
	}
}

func (s *AssignmentService) mapAssignError(err error) error {
	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "job not found")
	case errors.Is(err, repository.ErrTechnicianNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "technician not found")
	}

	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "assignment could not be committed")
}

func (s *AssignmentService) recordFailure(kind models.JobKind, err error) {
	outcome := "error"
	appErr := appErrors.FromError(s.mapAssignError(err))
	switch appErr.Code {
	case appErrors.ErrTechnicianBusy.Code:
		outcome = "busy"
	case appErrors.ErrNotFound.Code:
		outcome = "not_found"
	case appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamTimeout.Code:
		outcome = "upstream_failed"
	}
	s.metrics.RecordAssignment(string(kind), outcome)
}

func assignmentResponse(outcome *repository.AssignOutcome) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		Job: dto.NewJobSummary(outcome.Job),
		Technician: dto.TechnicianSummary{
			ID:        outcome.Technician.TechnicianID,
			Name:      outcome.Technician.FullName,
			TaskCount: outcome.TaskCount,
		},
	}
}
