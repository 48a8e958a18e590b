package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/statload/backend/internal/infrastructure/scheduler"
)

// JobLookup finds jobs by ID
type JobLookup interface {
	Get(id uuid.UUID) (scheduler.Job, error)
}

// JobHandler reports the state of download jobs
type JobHandler struct {
	BaseHandler
	jobs JobLookup
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs JobLookup) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// GetJob godoc
// @Summary      Get a job
// @Tags         jobs
// @Produce      json
// @Param        id path string true "Job ID" format(uuid)
// @Success      200 {object} dto.Response{data=JobResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}
	job, err := h.jobs.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toJobResponse(job))
}
