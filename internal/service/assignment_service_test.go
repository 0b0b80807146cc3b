package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/dto"
	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/repository"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

// assignmentStoreStub replays the decide/confirm protocol against in-memory
// records, mirroring what the real repository does inside its transaction.
type assignmentStoreStub struct {
	job     *models.Job
	tech    *models.Technician
	tasks   []models.AssignedTask
	assists []models.RoadAssistAssignment
	err     error

	committed bool
	decision  repository.AssignDecision
}

func (s *assignmentStoreStub) Assign(ctx context.Context, jobExternalID, technicianID string, decide repository.DecideFunc, confirm repository.ConfirmFunc) (*repository.AssignOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	decision, err := decide(s.job, s.tech, s.tasks, s.assists)
	if err != nil {
		return nil, err
	}
	s.decision = decision
	if confirm != nil {
		if err := confirm(ctx); err != nil {
			return nil, err
		}
	}
	s.committed = true
	s.job.Status = models.JobStatusScheduled
	s.job.TechnicianID = &s.tech.TechnicianID
	s.job.TechnicianName = &s.tech.FullName
	s.job.StartDate = &decision.Window.Start
	s.job.EndDate = &decision.Window.End
	return &repository.AssignOutcome{Job: s.job, Technician: s.tech, TaskCount: len(s.tasks) + 1}, nil
}

type roadsideOwnerStub struct {
	err   error
	calls int
}

func (s *roadsideOwnerStub) AssignRoadside(ctx context.Context, roadAssistID, technicianID string) error {
	s.calls++
	return s.err
}

func serviceJob(id string, start time.Time) *models.Job {
	return &models.Job{
		ExternalID:     id,
		Kind:           models.JobKindService,
		Status:         models.JobStatusPending,
		SuggestedStart: datePtr(start),
	}
}

func TestAssignAppointmentSuccess(t *testing.T) {
	store := &assignmentStoreStub{
		job:  serviceJob("apt_500", day(2024, 6, 12)),
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	resp, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "tech_001",
	})
	require.NoError(t, err)
	assert.True(t, store.committed)
	assert.Equal(t, "tech_001", resp.Technician.ID)
	assert.Equal(t, models.JobStatusScheduled, resp.Job.Status)
	assert.Equal(t, 1.0, store.decision.WorkDurationDays)
}

func TestAssignAppointmentBusyReturnsConflicts(t *testing.T) {
	store := &assignmentStoreStub{
		job:  serviceJob("apt_500", day(2024, 6, 10)),
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
		tasks: []models.AssignedTask{
			{JobID: "apt_100", TechnicianID: "tech_001", StartDate: day(2024, 6, 9), WorkDuration: 3, Status: models.TaskStatusScheduled},
		},
	}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "tech_001",
	})
	require.Error(t, err)
	assert.False(t, store.committed)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTechnicianBusy.Code, appErr.Code)

	var availErr *models.AvailabilityError
	require.True(t, errors.As(err, &availErr))
	require.Len(t, availErr.Conflicts, 1)
	assert.Equal(t, "apt_100", availErr.Conflicts[0].ID)
}

func TestAssignAppointmentReassignmentToSameJob(t *testing.T) {
	// The job's own task must not block reassigning the same technician.
	store := &assignmentStoreStub{
		job:  serviceJob("apt_500", day(2024, 6, 10)),
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
		tasks: []models.AssignedTask{
			{JobID: "apt_500", TechnicianID: "tech_001", StartDate: day(2024, 6, 10), WorkDuration: 1, Status: models.TaskStatusScheduled},
		},
	}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "tech_001",
	})
	require.NoError(t, err)
	assert.True(t, store.committed)
}

func TestAssignAppointmentJobNotFound(t *testing.T) {
	store := &assignmentStoreStub{err: repository.ErrJobNotFound}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "missing",
		TechnicianID:  "tech_001",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAssignAppointmentTechnicianNotFound(t *testing.T) {
	store := &assignmentStoreStub{err: repository.ErrTechnicianNotFound}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "missing",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAssignAppointmentInactiveTechnician(t *testing.T) {
	store := &assignmentStoreStub{
		job:  serviceJob("apt_500", day(2024, 6, 12)),
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: false},
	}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "tech_001",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.False(t, store.committed)
}

func TestAssignAppointmentKindMismatch(t *testing.T) {
	job := serviceJob("ra_200", day(2024, 6, 12))
	job.Kind = models.JobKindRoadside
	store := &assignmentStoreStub{
		job:  job,
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "ra_200",
		TechnicianID:  "tech_001",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignAppointmentMissingFields(t *testing.T) {
	svc := NewAssignmentService(&assignmentStoreStub{}, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAssignRoadAssistSuccess(t *testing.T) {
	job := &models.Job{
		ExternalID:  "ra_200",
		Kind:        models.JobKindRoadside,
		Status:      models.JobStatusPending,
		RequestDate: datePtr(time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)),
	}
	store := &assignmentStoreStub{
		job:  job,
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	roadside := &roadsideOwnerStub{}
	svc := NewAssignmentService(store, roadside, nil, nil, testPolicy, nil, zap.NewNop())

	resp, err := svc.AssignRoadAssist(context.Background(), "ra_200", dto.AssignRoadAssistRequest{TechnicianID: "tech_001"})
	require.NoError(t, err)
	assert.True(t, store.committed)
	assert.Equal(t, 1, roadside.calls)
	assert.Equal(t, "tech_001", resp.Technician.ID)
}

func TestAssignRoadAssistUpstreamFailureLeavesLocalStateUntouched(t *testing.T) {
	job := &models.Job{
		ExternalID:  "ra_200",
		Kind:        models.JobKindRoadside,
		Status:      models.JobStatusPending,
		RequestDate: datePtr(time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)),
	}
	store := &assignmentStoreStub{
		job:  job,
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	roadside := &roadsideOwnerStub{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "roadside service rejected assignment")}
	svc := NewAssignmentService(store, roadside, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignRoadAssist(context.Background(), "ra_200", dto.AssignRoadAssistRequest{TechnicianID: "tech_001"})
	require.Error(t, err)
	assert.False(t, store.committed)
	assert.Equal(t, 1, roadside.calls)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErr.Code)
}

func TestAssignRoadAssistBusySameDay(t *testing.T) {
	job := &models.Job{
		ExternalID:  "ra_200",
		Kind:        models.JobKindRoadside,
		Status:      models.JobStatusPending,
		RequestDate: datePtr(time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)),
	}
	store := &assignmentStoreStub{
		job:  job,
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
		assists: []models.RoadAssistAssignment{
			{RoadAssistID: "ra_100", TechnicianID: "tech_001", AssignedAt: time.Date(2024, 6, 12, 14, 0, 0, 0, time.UTC), Status: models.RoadAssistStatusPending},
		},
	}
	roadside := &roadsideOwnerStub{}
	svc := NewAssignmentService(store, roadside, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignRoadAssist(context.Background(), "ra_200", dto.AssignRoadAssistRequest{TechnicianID: "tech_001"})
	require.Error(t, err)
	// Validation fails before the upstream owner is ever contacted.
	assert.Equal(t, 0, roadside.calls)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrTechnicianBusy.Code, appErr.Code)
}

func TestAssignAppointmentStorageErrorWrapped(t *testing.T) {
	store := &assignmentStoreStub{err: errors.New("connection reset")}
	svc := NewAssignmentService(store, &roadsideOwnerStub{}, nil, nil, testPolicy, nil, zap.NewNop())

	_, err := svc.AssignAppointment(context.Background(), dto.AssignAppointmentRequest{
		AppointmentID: "apt_500",
		TechnicianID:  "tech_001",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErr.Code)
}
