package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/pkg/config"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

type upstreamSource interface {
	FetchTechnicians(ctx context.Context) ([]map[string]interface{}, error)
	FetchJobs(ctx context.Context) ([]map[string]interface{}, error)
	FetchRoadAssists(ctx context.Context) ([]map[string]interface{}, error)
}

type rosterWriter interface {
	ReplaceAll(ctx context.Context, technicians []models.Technician, tasks []models.AssignedTask) error
}

type jobWriter interface {
	Upsert(ctx context.Context, job *models.Job) error
}

// SyncService reconciles upstream records into the local store. Records are
// processed independently and in parallel; one record's failure never aborts
// the batch.
type SyncService struct {
	upstream    upstreamSource
	technicians rosterWriter
	jobs        jobWriter
	cache       *CacheService
	metrics     *MetricsService
	cfg         config.SyncConfig
	logger      *zap.Logger
}

// NewSyncService creates a service instance.
func NewSyncService(
	upstream upstreamSource,
	technicians rosterWriter,
	jobs jobWriter,
	cache *CacheService,
	metrics *MetricsService,
	cfg config.SyncConfig,
	logger *zap.Logger,
) *SyncService {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.ErrorSampleCap <= 0 {
		cfg.ErrorSampleCap = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		upstream:    upstream,
		technicians: technicians,
		jobs:        jobs,
		cache:       cache,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// Reconcile pulls one upstream source and upserts its records locally.
func (s *SyncService) Reconcile(ctx context.Context, source models.SyncSource) (*models.SyncReport, error) {
	switch source {
	case models.SyncSourceTechnicians:
		return s.reconcileRoster(ctx)
	case models.SyncSourceAppointments:
		return s.reconcileJobs(ctx, source, models.JobKindService)
	case models.SyncSourceRoadAssists:
		return s.reconcileJobs(ctx, source, models.JobKindRoadside)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown sync source %q", source))
	}
}

// reconcileRoster replaces the whole technician roster with the upstream
// snapshot; the roster is fully owned by the upstream service. Records that
// fail to parse are dropped from the snapshot and reported, the rest commit
// in one transaction.
func (s *SyncService) reconcileRoster(ctx context.Context) (*models.SyncReport, error) {
	records, err := s.upstream.FetchTechnicians(ctx)
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{Source: models.SyncSourceTechnicians}
	var technicians []models.Technician
	var tasks []models.AssignedTask

	for i, record := range records {
		tech, techTasks, parseErr := parseTechnicianRecord(record)
		if parseErr != nil {
			s.recordFailure(report, models.SyncSourceTechnicians, i, parseErr)
			continue
		}
		technicians = append(technicians, *tech)
		tasks = append(tasks, techTasks...)
		report.Succeeded++
		s.metrics.RecordSyncRecord(string(models.SyncSourceTechnicians), "ok")
	}

	if err := s.technicians.ReplaceAll(ctx, technicians, tasks); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to replace technician roster")
	}

	s.cache.InvalidateAvailability(ctx)
	s.logger.Info("technician roster reconciled",
		zap.Int("succeeded", report.Succeeded), zap.Int("failed", report.Failed))
	return report, nil
}

func (s *SyncService) reconcileJobs(ctx context.Context, source models.SyncSource, kind models.JobKind) (*models.SyncReport, error) {
	var records []map[string]interface{}
	var err error
	if kind == models.JobKindRoadside {
		records, err = s.upstream.FetchRoadAssists(ctx)
	} else {
		records, err = s.upstream.FetchJobs(ctx)
	}
	if err != nil {
		return nil, err
	}

	report := &models.SyncReport{Source: source}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Workers)

	for i, record := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, rec map[string]interface{}) {
			defer wg.Done()
			defer func() { <-sem }()

			job, parseErr := parseJobRecord(rec, kind)
			if parseErr == nil {
				parseErr = s.jobs.Upsert(ctx, job)
			}

			mu.Lock()
			defer mu.Unlock()
			if parseErr != nil {
				s.recordFailure(report, source, idx, parseErr)
				return
			}
			report.Succeeded++
			s.metrics.RecordSyncRecord(string(source), "ok")
		}(i, record)
	}
	wg.Wait()

	s.cache.InvalidateAvailability(ctx)
	s.logger.Info("jobs reconciled", zap.String("source", string(source)),
		zap.Int("succeeded", report.Succeeded), zap.Int("failed", report.Failed))
	return report, nil
}

// recordFailure must be called with the report lock held where one exists.
func (s *SyncService) recordFailure(report *models.SyncReport, source models.SyncSource, idx int, err error) {
	report.Failed++
	if len(report.Errors) < s.cfg.ErrorSampleCap {
		report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", idx, err))
	}
	s.metrics.RecordSyncRecord(string(source), "failed")
	s.logger.Warn("failed to reconcile record",
		zap.String("source", string(source)), zap.Int("index", idx), zap.Error(err))
}

func parseTechnicianRecord(record map[string]interface{}) (*models.Technician, []models.AssignedTask, error) {
	name := firstString(record, "name", "full_name", "fullName", "technicianName")
	id := firstString(record, "technicianId", "technician_id", "id", "_id")
	if name == "" || id == "" {
		return nil, nil, fmt.Errorf("missing required id or name")
	}

	tech := &models.Technician{
		TechnicianID: id,
		FullName:     name,
		Active:       parseActive(record),
	}
	if email := firstString(record, "email"); email != "" {
		tech.Email = &email
	}
	if phone := firstString(record, "phone", "phoneNumber", "phone_number"); phone != "" {
		tech.Phone = &phone
	}
	if specialty := firstString(record, "specialty", "expertise"); specialty != "" {
		tech.Specialty = &specialty
	}

	tasks, err := parseTaskList(record, id)
	if err != nil {
		return nil, nil, err
	}
	return tech, tasks, nil
}

func parseTaskList(record map[string]interface{}, technicianID string) ([]models.AssignedTask, error) {
	raw, ok := firstValue(record, "assignedTasks", "assigned_tasks", "tasks")
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("assigned tasks is not a list")
	}

	tasks := make([]models.AssignedTask, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("assigned task entry is not an object")
		}
		jobID := firstString(item, "appointmentId", "appointment_id", "jobId", "job_id", "id")
		if jobID == "" {
			return nil, fmt.Errorf("assigned task missing appointment id")
		}
		start, err := firstTime(item, "startDate", "start_date", "suggested_started_date")
		if err != nil {
			return nil, fmt.Errorf("assigned task %s: %w", jobID, err)
		}
		if start.IsZero() {
			return nil, fmt.Errorf("assigned task %s missing start date", jobID)
		}
		duration := firstNumber(item, "workDuration", "work_duration", "predicted_duration_date")
		if duration <= 0 {
			duration = 1
		}
		status := models.TaskStatus(normalizeStatus(firstString(item, "status")))
		if status == "" {
			status = models.TaskStatusScheduled
		}
		tasks = append(tasks, models.AssignedTask{
			TechnicianID: technicianID,
			JobID:        jobID,
			StartDate:    start,
			WorkDuration: duration,
			Status:       status,
		})
	}
	return tasks, nil
}

func parseJobRecord(record map[string]interface{}, kind models.JobKind) (*models.Job, error) {
	id := firstString(record, "appointmentId", "appointment_id", "roadAssistId", "road_assist_id", "id", "_id")
	if id == "" {
		// No explicit id anywhere; derive one so the record still upserts
		// under a stable local identity from here on.
		id = uuid.NewString()
	}

	job := &models.Job{
		ExternalID: id,
		Kind:       kind,
		Status:     models.JobStatusPending,
	}

	if customer := firstString(record, "customerId", "customer_id", "customer"); customer != "" {
		job.CustomerRef = &customer
	}
	if vehicle := firstString(record, "vehicleId", "vehicle_id", "vehicleNumber", "vehicle_number"); vehicle != "" {
		job.VehicleRef = &vehicle
	}

	suggested, err := firstTime(record, "suggested_started_date", "suggestedStartDate", "suggestedStart")
	if err != nil {
		return nil, err
	}
	if !suggested.IsZero() {
		job.SuggestedStart = &suggested
	}

	requested, err := firstTime(record, "requestDate", "request_date", "requestedAt", "requested_at")
	if err != nil {
		return nil, err
	}
	if !requested.IsZero() {
		job.RequestDate = &requested
	}

	if duration := firstNumber(record, "predicted_duration_date", "predictedDuration", "duration", "workDuration"); duration > 0 {
		job.Duration = &duration
	}

	if status := normalizeStatus(firstString(record, "status")); status != "" {
		job.Status = models.JobStatus(status)
	}

	return job, nil
}

func parseActive(record map[string]interface{}) bool {
	if v, ok := firstValue(record, "active"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	status := strings.ToLower(firstString(record, "status"))
	if status == "" {
		return true
	}
	return status == "active"
}

func normalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "new":
		return string(models.JobStatusPending)
	case "scheduled", "assigned":
		return string(models.JobStatusScheduled)
	case "in-progress", "in_progress", "inprogress":
		return string(models.JobStatusInProgress)
	case "completed", "done":
		return string(models.JobStatusCompleted)
	case "rejected", "cancelled", "canceled":
		return string(models.JobStatusRejected)
	default:
		return ""
	}
}

func firstValue(record map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(record map[string]interface{}, keys ...string) string {
	v, ok := firstValue(record, keys...)
	if !ok {
		return ""
	}
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	default:
		return ""
	}
}

func firstNumber(record map[string]interface{}, keys ...string) float64 {
	v, ok := firstValue(record, keys...)
	if !ok {
		return 0
	}
	switch value := v.(type) {
	case float64:
		return value
	case int:
		return float64(value)
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%f", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func firstTime(record map[string]interface{}, keys ...string) (time.Time, error) {
	raw := firstString(record, keys...)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}
