package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/repository"
	"github.com/wrenchworks/dispatch-api/internal/service"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

type assignStoreStub struct {
	job     *models.Job
	tech    *models.Technician
	tasks   []models.AssignedTask
	assists []models.RoadAssistAssignment
	err     error
}

func (s *assignStoreStub) Assign(ctx context.Context, jobExternalID, technicianID string, decide repository.DecideFunc, confirm repository.ConfirmFunc) (*repository.AssignOutcome, error) {
	if s.err != nil {
		return nil, s.err
	}
	decision, err := decide(s.job, s.tech, s.tasks, s.assists)
	if err != nil {
		return nil, err
	}
	if confirm != nil {
		if err := confirm(ctx); err != nil {
			return nil, err
		}
	}
	s.job.Status = models.JobStatusScheduled
	s.job.TechnicianID = &s.tech.TechnicianID
	s.job.TechnicianName = &s.tech.FullName
	s.job.StartDate = &decision.Window.Start
	s.job.EndDate = &decision.Window.End
	return &repository.AssignOutcome{Job: s.job, Technician: s.tech, TaskCount: 1}, nil
}

type roadsideStub struct {
	err error
}

func (s *roadsideStub) AssignRoadside(ctx context.Context, roadAssistID, technicianID string) error {
	return s.err
}

func newAssignmentHandler(store *assignStoreStub, roadside *roadsideStub) *AssignmentHandler {
	policy := service.WindowPolicy{ServiceDefaultDays: 1, RoadsideDefaultHours: 4}
	svc := service.NewAssignmentService(store, roadside, nil, nil, policy, nil, zap.NewNop())
	return NewAssignmentHandler(svc)
}

func postJSON(c *gin.Context, path, body string) {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
}

func TestAssignmentHandlerAssignAppointment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	store := &assignStoreStub{
		job:  &models.Job{ExternalID: "apt_500", Kind: models.JobKindService, Status: models.JobStatusPending, SuggestedStart: &start},
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	handler := newAssignmentHandler(store, &roadsideStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/appointments/assign", `{"appointmentId":"apt_500","technicianId":"tech_001"}`)

	handler.AssignAppointment(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, true, envelope["success"])
}

func TestAssignmentHandlerAssignAppointmentInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAssignmentHandler(&assignStoreStub{}, &roadsideStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/appointments/assign", `{not json`)

	handler.AssignAppointment(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentHandlerAssignAppointmentBusy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	store := &assignStoreStub{
		job:  &models.Job{ExternalID: "apt_500", Kind: models.JobKindService, Status: models.JobStatusPending, SuggestedStart: &start},
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
		tasks: []models.AssignedTask{
			{JobID: "apt_100", TechnicianID: "tech_001", StartDate: start, WorkDuration: 2, Status: models.TaskStatusScheduled},
		},
	}
	handler := newAssignmentHandler(store, &roadsideStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/appointments/assign", `{"appointmentId":"apt_500","technicianId":"tech_001"}`)

	handler.AssignAppointment(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, false, envelope["success"])
	conflicts, ok := envelope["conflicts"].([]interface{})
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	conflict := conflicts[0].(map[string]interface{})
	assert.Equal(t, "apt_100", conflict["id"])
}

func TestAssignmentHandlerAssignAppointmentNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &assignStoreStub{err: repository.ErrJobNotFound}
	handler := newAssignmentHandler(store, &roadsideStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	postJSON(c, "/appointments/assign", `{"appointmentId":"missing","technicianId":"tech_001"}`)

	handler.AssignAppointment(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentHandlerAssignRoadAssist(t *testing.T) {
	gin.SetMode(gin.TestMode)
	requested := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	store := &assignStoreStub{
		job:  &models.Job{ExternalID: "ra_200", Kind: models.JobKindRoadside, Status: models.JobStatusPending, RequestDate: &requested},
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	handler := newAssignmentHandler(store, &roadsideStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/roadassists/ra_200/assign-technician", bytes.NewBufferString(`{"technicianId":"tech_001"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ra_200"}}

	handler.AssignRoadAssist(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAssignmentHandlerAssignRoadAssistUpstreamFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	requested := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	store := &assignStoreStub{
		job:  &models.Job{ExternalID: "ra_200", Kind: models.JobKindRoadside, Status: models.JobStatusPending, RequestDate: &requested},
		tech: &models.Technician{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}
	roadside := &roadsideStub{err: appErrors.Clone(appErrors.ErrUpstreamUnavailable, "roadside service rejected assignment")}
	handler := newAssignmentHandler(store, roadside)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/roadassists/ra_200/assign-technician", bytes.NewBufferString(`{"technicianId":"tech_001"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "ra_200"}}

	handler.AssignRoadAssist(c)
	require.Equal(t, http.StatusBadGateway, w.Code)
}
