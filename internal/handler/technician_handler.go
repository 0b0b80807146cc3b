package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/service"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
	"github.com/wrenchworks/dispatch-api/pkg/response"
)

// TechnicianHandler wires technician services to HTTP routes.
type TechnicianHandler struct {
	technicians  *service.TechnicianService
	availability *service.AvailabilityService
}

// NewTechnicianHandler constructs a new TechnicianHandler.
func NewTechnicianHandler(technicians *service.TechnicianService, availability *service.AvailabilityService) *TechnicianHandler {
	return &TechnicianHandler{technicians: technicians, availability: availability}
}

// List godoc
// @Summary List technicians
// @Tags Technicians
// @Produce json
// @Param search query string false "Search by name/email/specialty"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (full_name,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /technicians [get]
func (h *TechnicianHandler) List(c *gin.Context) {
	filter := models.TechnicianFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if active := c.Query("active"); active != "" {
		switch strings.ToLower(active) {
		case "true":
			val := true
			filter.Active = &val
		case "false":
			val := false
			filter.Active = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	list, err := h.technicians.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get godoc
// @Summary Get technician detail with current commitments
// @Tags Technicians
// @Produce json
// @Param id path string true "Technician ID"
// @Success 200 {object} response.Envelope
// @Router /technicians/{id} [get]
func (h *TechnicianHandler) Get(c *gin.Context) {
	detail, err := h.technicians.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// ListAvailable godoc
// @Summary List technician availability for a service appointment
// @Tags Technicians
// @Produce json
// @Param appointmentId query string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /technicians/available [get]
func (h *TechnicianHandler) ListAvailable(c *gin.Context) {
	appointmentID := strings.TrimSpace(c.Query("appointmentId"))
	if appointmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "appointmentId is required"))
		return
	}

	listing, err := h.availability.ListForJob(c.Request.Context(), appointmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, listing)
}

// ListAvailableRoadAssist godoc
// @Summary List technician availability for a roadside request
// @Tags Technicians
// @Produce json
// @Param id path string true "Roadside request ID"
// @Success 200 {object} response.Envelope
// @Router /technicians/available/roadassist/{id} [get]
func (h *TechnicianHandler) ListAvailableRoadAssist(c *gin.Context) {
	listing, err := h.availability.ListForJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, listing)
}
