package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/infrastructure/warehouse"
)

// IstatService is what the ISTAT endpoints read
type IstatService interface {
	Categories(ctx context.Context) ([]sdmx.Category, error)
	DataflowsForCategory(ctx context.Context, categoryID string) ([]sdmx.Dataflow, error)
	AvailableViews(ctx context.Context) ([]warehouse.ViewInfo, error)
}

// CategoryResponse is one ISTAT category
type CategoryResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	NameIT string `json:"nome_it,omitempty"`
	NameEN string `json:"nome_en,omitempty"`
}

// IstatHandler serves the ISTAT categories, dataflows and views
type IstatHandler struct {
	BaseHandler
	service IstatService
}

// NewIstatHandler creates a new ISTAT handler
func NewIstatHandler(service IstatService) *IstatHandler {
	return &IstatHandler{service: service}
}

// ListCategories godoc
// @Summary      List ISTAT categories
// @Tags         istat
// @Produce      json
// @Success      200 {object} dto.Response{data=[]CategoryResponse}
// @Router       /istat/categories [get]
func (h *IstatHandler) ListCategories(c *gin.Context) {
	cats, err := h.service.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, CategoryResponse{
			ID:     cat.ID,
			Name:   cat.DisplayName(),
			NameIT: cat.NameIT,
			NameEN: cat.NameEN,
		})
	}
	h.List(c, out, len(out))
}

// ListDataflows godoc
// @Summary      List the dataflows of an ISTAT category
// @Tags         istat
// @Produce      json
// @Param        id path string true "Category ID"
// @Success      200 {object} dto.Response{data=[]sdmx.Dataflow}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /istat/categories/{id}/dataflows [get]
func (h *IstatHandler) ListDataflows(c *gin.Context) {
	flows, err := h.service.DataflowsForCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if flows == nil {
		flows = []sdmx.Dataflow{}
	}
	h.List(c, flows, len(flows))
}

// ListViews godoc
// @Summary      List ISTAT views
// @Tags         istat
// @Produce      json
// @Success      200 {object} dto.Response{data=[]warehouse.ViewInfo}
// @Router       /istat/views [get]
func (h *IstatHandler) ListViews(c *gin.Context) {
	views, err := h.service.AvailableViews(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if views == nil {
		views = []warehouse.ViewInfo{}
	}
	h.List(c, views, len(views))
}
