package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appeurostat "github.com/statload/backend/internal/application/eurostat"
	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/infrastructure/scheduler"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

// EurostatService is what the Eurostat endpoints read
type EurostatService interface {
	ListViews(ctx context.Context) ([]eurostat.ViewEntry, error)
	ListDatasets(ctx context.Context) ([]eurostat.DatasetSummary, error)
	RootCategories(ctx context.Context) ([]*eurostat.Node, error)
	Browse(ctx context.Context, codes []string) (*appeurostat.BrowseResult, error)
	IsUpToDate(ctx context.Context, code string) (bool, *eurostat.DownloadLog, error)
}

// JobSubmitter queues dataset jobs
type JobSubmitter interface {
	Submit(kind scheduler.JobKind, code, title string) (scheduler.Job, error)
}

// EurostatHandler serves the Eurostat views, catalogue and downloads
type EurostatHandler struct {
	BaseHandler
	service EurostatService
	jobs    JobSubmitter
}

// NewEurostatHandler creates a new Eurostat handler
func NewEurostatHandler(service EurostatService, jobs JobSubmitter) *EurostatHandler {
	return &EurostatHandler{service: service, jobs: jobs}
}

// ListViews godoc
// @Summary      List Eurostat views
// @Description  Returns the view catalogue, newest first, and the catalogue root categories
// @Tags         eurostat
// @Produce      json
// @Success      200 {object} dto.Response{data=ViewsResponse}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /eurostat/views [get]
func (h *EurostatHandler) ListViews(c *gin.Context) {
	ctx := c.Request.Context()
	views, err := h.service.ListViews(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	roots, err := h.service.RootCategories(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if views == nil {
		views = []eurostat.ViewEntry{}
	}
	h.Success(c, ViewsResponse{Views: views, Categories: toNodeResponses(roots)})
}

// Browse godoc
// @Summary      Browse the Eurostat catalogue
// @Description  Follows the codes of the path from the root and lists the children reached
// @Tags         eurostat
// @Produce      json
// @Param        path path string true "Codes separated by /"
// @Success      200 {object} dto.Response{data=BrowseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /eurostat/views/browse/{path} [get]
func (h *EurostatHandler) Browse(c *gin.Context) {
	var codes []string
	for _, part := range strings.Split(c.Param("path"), "/") {
		if part = strings.TrimSpace(part); part != "" {
			codes = append(codes, part)
		}
	}

	res, err := h.service.Browse(c.Request.Context(), codes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BrowseResponse{
		Node:       toNodeResponse(res.Node),
		Children:   toNodeResponses(res.Children),
		Breadcrumb: toNodeResponses(res.Breadcrumb),
	})
}

// ListDatasets godoc
// @Summary      List downloaded Eurostat datasets
// @Tags         eurostat
// @Produce      json
// @Success      200 {object} dto.Response{data=[]eurostat.DatasetSummary}
// @Router       /eurostat/datasets [get]
func (h *EurostatHandler) ListDatasets(c *gin.Context) {
	datasets, err := h.service.ListDatasets(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if datasets == nil {
		datasets = []eurostat.DatasetSummary{}
	}
	h.List(c, datasets, len(datasets))
}

// Download godoc
// @Summary      Download a Eurostat dataset
// @Description  Queues a download unless the dataset was already loaded today
// @Tags         eurostat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Dataset code"
// @Param        request body DownloadRequest false "Dataset title"
// @Success      200 {object} dto.Response{data=UpToDateResponse}
// @Success      202 {object} dto.Response{data=JobResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /eurostat/datasets/{code}/download [post]
func (h *EurostatHandler) Download(c *gin.Context) {
	code, title, ok := h.bindDataset(c)
	if !ok {
		return
	}

	upToDate, entry, err := h.service.IsUpToDate(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if upToDate {
		h.Success(c, UpToDateResponse{
			DatasetCode:  eurostat.NormalizeCode(code),
			Message:      fmt.Sprintf("already up to date (last download: %s)", entry.LastDownloadDate.Format("2006-01-02")),
			UpToDate:     true,
			LastDownload: entry.LastDownloadDate,
		})
		return
	}
	h.submit(c, scheduler.JobKindDownload, code, title)
}

// Refresh godoc
// @Summary      Refresh a Eurostat view
// @Description  Queues a reload of the dataset regardless of its download date
// @Tags         eurostat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Dataset code"
// @Param        request body DownloadRequest false "Dataset title"
// @Success      202 {object} dto.Response{data=JobResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /eurostat/views/{code}/refresh [post]
func (h *EurostatHandler) Refresh(c *gin.Context) {
	code, title, ok := h.bindDataset(c)
	if !ok {
		return
	}
	h.submit(c, scheduler.JobKindRefresh, code, title)
}

func (h *EurostatHandler) bindDataset(c *gin.Context) (code, title string, ok bool) {
	var uri DatasetURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return "", "", false
	}
	var req DownloadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return "", "", false
		}
	}
	return uri.Code, strings.TrimSpace(req.Title), true
}

func (h *EurostatHandler) submit(c *gin.Context, kind scheduler.JobKind, code, title string) {
	job, err := h.jobs.Submit(kind, code, title)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.L(c.Request.Context()).Info("Job queued",
		zap.String("job_id", job.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("dataset", code),
		zap.String("username", middleware.GetJWTUsername(c)),
	)
	h.Accepted(c, toJobResponse(job))
}
