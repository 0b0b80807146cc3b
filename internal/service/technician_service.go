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

// TechnicianService exposes read access to the synced roster.
type TechnicianService struct {
	technicians technicianReader
	logger      *zap.Logger
}

// NewTechnicianService creates a service instance.
func NewTechnicianService(technicians technicianReader, logger *zap.Logger) *TechnicianService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TechnicianService{technicians: technicians, logger: logger}
}

// List returns technicians matching the filter.
func (s *TechnicianService) List(ctx context.Context, filter models.TechnicianFilter) (*dto.TechnicianListResponse, error) {
	technicians, total, err := s.technicians.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list technicians")
	}
	return &dto.TechnicianListResponse{Technicians: technicians, Total: total}, nil
}

// Get returns one technician with their current commitments.
func (s *TechnicianService) Get(ctx context.Context, technicianID string) (*dto.TechnicianDetail, error) {
	tech, err := s.technicians.FindByTechnicianID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "technician not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load technician")
	}

	tasks, err := s.technicians.ListTasks(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load technician tasks")
	}
	assists, err := s.technicians.ListRoadAssists(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load road assist assignments")
	}

	return &dto.TechnicianDetail{Technician: *tech, Tasks: tasks, RoadAssists: assists}, nil
}
