package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/internal/service"
	"github.com/wrenchworks/dispatch-api/pkg/response"
)

// JobHandler exposes read access to synchronised jobs.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler constructs a new JobHandler.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// List godoc
// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Param kind query string false "Job kind (service/roadside)"
// @Param status query string false "Job status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	filter := models.JobFilter{
		Kind:      models.JobKind(strings.TrimSpace(c.Query("kind"))),
		Status:    models.JobStatus(strings.TrimSpace(c.Query("status"))),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	list, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get godoc
// @Summary Get a job by external ID
// @Tags Jobs
// @Produce json
// @Param id path string true "Job external ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	detail, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}
