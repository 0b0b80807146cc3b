package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/service"
)

type rosterStub struct {
	technicians []models.Technician
	tasks       map[string][]models.AssignedTask
	assists     map[string][]models.RoadAssistAssignment
}

func (s *rosterStub) List(ctx context.Context, filter models.TechnicianFilter) ([]models.Technician, int, error) {
	return s.technicians, len(s.technicians), nil
}

func (s *rosterStub) FindByTechnicianID(ctx context.Context, technicianID string) (*models.Technician, error) {
	for i := range s.technicians {
		if s.technicians[i].TechnicianID == technicianID {
			cp := s.technicians[i]
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *rosterStub) ListTasks(ctx context.Context, technicianID string) ([]models.AssignedTask, error) {
	return s.tasks[technicianID], nil
}

func (s *rosterStub) ListRoadAssists(ctx context.Context, technicianID string) ([]models.RoadAssistAssignment, error) {
	return s.assists[technicianID], nil
}

type jobStoreStub struct {
	jobs map[string]*models.Job
}

func (s *jobStoreStub) FindByExternalID(ctx context.Context, externalID string) (*models.Job, error) {
	if job, ok := s.jobs[externalID]; ok {
		cp := *job
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func newTechnicianHandler(roster *rosterStub, jobs *jobStoreStub) *TechnicianHandler {
	policy := service.WindowPolicy{ServiceDefaultDays: 1, RoadsideDefaultHours: 4}
	technicians := service.NewTechnicianService(roster, zap.NewNop())
	availability := service.NewAvailabilityService(roster, jobs, nil, nil, policy, zap.NewNop())
	return NewTechnicianHandler(technicians, availability)
}

func decodeEnvelope(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestTechnicianHandlerListAvailableMissingParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTechnicianHandler(&rosterStub{}, &jobStoreStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/technicians/available", nil)
	c.Request = req

	handler.ListAvailable(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, false, envelope["success"])
	assert.NotEmpty(t, envelope["message"])
}

func TestTechnicianHandlerListAvailableUnknownJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTechnicianHandler(&rosterStub{}, &jobStoreStub{jobs: map[string]*models.Job{}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/technicians/available?appointmentId=missing", nil)
	c.Request = req

	handler.ListAvailable(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTechnicianHandlerListAvailableSorted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	roster := &rosterStub{
		technicians: []models.Technician{
			{TechnicianID: "tech_002", FullName: "Bella", Active: true},
			{TechnicianID: "tech_001", FullName: "Andy", Active: true},
		},
		tasks: map[string][]models.AssignedTask{
			"tech_002": {{JobID: "apt_100", StartDate: start, WorkDuration: 2, Status: models.TaskStatusScheduled}},
		},
	}
	jobs := &jobStoreStub{jobs: map[string]*models.Job{
		"apt_500": {ExternalID: "apt_500", Kind: models.JobKindService, SuggestedStart: &start},
	}}
	handler := newTechnicianHandler(roster, jobs)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/technicians/available?appointmentId=apt_500", nil)
	c.Request = req

	handler.ListAvailable(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, true, envelope["success"])

	data := envelope["data"].(map[string]interface{})
	technicians := data["technicians"].([]interface{})
	require.Len(t, technicians, 2)

	first := technicians[0].(map[string]interface{})
	second := technicians[1].(map[string]interface{})
	assert.Equal(t, "Andy", first["name"])
	assert.Equal(t, true, first["available"])
	assert.Equal(t, "Bella", second["name"])
	assert.Equal(t, false, second["available"])
}

func TestTechnicianHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTechnicianHandler(&rosterStub{}, &jobStoreStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/technicians/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTechnicianHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	roster := &rosterStub{technicians: []models.Technician{
		{TechnicianID: "tech_001", FullName: "Andy", Active: true},
	}}
	handler := newTechnicianHandler(roster, &jobStoreStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/technicians?active=true", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, true, envelope["success"])
}
