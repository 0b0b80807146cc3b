package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/service"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
	"github.com/wrenchworks/dispatch-api/pkg/response"
)

// SyncHandler triggers upstream reconciliation runs on demand.
type SyncHandler struct {
	sync *service.SyncService
}

// NewSyncHandler constructs a new SyncHandler.
func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Trigger godoc
// @Summary Trigger a reconciliation run for an upstream source
// @Tags Sync
// @Produce json
// @Param source path string true "Sync source (technicians/appointments/roadassists)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /sync/{source} [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	source, ok := parseSyncSource(c.Param("source"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown sync source"))
		return
	}

	report, err := h.sync.Reconcile(c.Request.Context(), source)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

func parseSyncSource(raw string) (models.SyncSource, bool) {
	switch models.SyncSource(strings.ToLower(strings.TrimSpace(raw))) {
	case models.SyncSourceTechnicians:
		return models.SyncSourceTechnicians, true
	case models.SyncSourceAppointments:
		return models.SyncSourceAppointments, true
	case models.SyncSourceRoadAssists:
		return models.SyncSourceRoadAssists, true
	default:
		return "", false
	}
}
