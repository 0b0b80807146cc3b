package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/wrenchworks/dispatch-api/internal/dto"
	"github.com/wrenchworks/dispatch-api/internal/service"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
	"github.com/wrenchworks/dispatch-api/pkg/response"
)

// AssignmentHandler exposes technician assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs a new AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// AssignAppointment godoc
// @Summary Assign a technician to a service appointment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignAppointmentRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /appointments/assign [post]
func (h *AssignmentHandler) AssignAppointment(c *gin.Context) {
	var req dto.AssignAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.assignments.AssignAppointment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// AssignRoadAssist godoc
// @Summary Assign a technician to a roadside assistance request
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Roadside request ID"
// @Param payload body dto.AssignRoadAssistRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Security BearerAuth
// @Router /roadassists/{id}/assign-technician [put]
func (h *AssignmentHandler) AssignRoadAssist(c *gin.Context) {
	var req dto.AssignRoadAssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.assignments.AssignRoadAssist(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
