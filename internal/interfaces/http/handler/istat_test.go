package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/warehouse"
	"github.com/statload/backend/internal/interfaces/http/dto"
)

type MockIstatService struct {
	mock.Mock
}

func (m *MockIstatService) Categories(ctx context.Context) ([]sdmx.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]sdmx.Category)
	return cats, args.Error(1)
}

func (m *MockIstatService) DataflowsForCategory(ctx context.Context, categoryID string) ([]sdmx.Dataflow, error) {
	args := m.Called(ctx, categoryID)
	flows, _ := args.Get(0).([]sdmx.Dataflow)
	return flows, args.Error(1)
}

func (m *MockIstatService) AvailableViews(ctx context.Context) ([]warehouse.ViewInfo, error) {
	args := m.Called(ctx)
	views, _ := args.Get(0).([]warehouse.ViewInfo)
	return views, args.Error(1)
}

func newIstatRouter(svc IstatService) *gin.Engine {
	h := NewIstatHandler(svc)
	router := gin.New()
	router.GET("/istat/categories", h.ListCategories)
	router.GET("/istat/categories/:id/dataflows", h.ListDataflows)
	router.GET("/istat/views", h.ListViews)
	return router
}

func TestIstatHandler_ListCategories(t *testing.T) {
	svc := new(MockIstatService)
	svc.On("Categories", mock.Anything).Return([]sdmx.Category{
		{ID: "22", NameIT: "Popolazione", NameEN: "Population"},
		{ID: "23", NameEN: "Health"},
	}, nil)

	w := serve(newIstatRouter(svc), http.MethodGet, "/istat/categories", "")

	require.Equal(t, http.StatusOK, w.Code)
	var cats []CategoryResponse
	decodeData(t, w, &cats)
	require.Len(t, cats, 2)
	assert.Equal(t, "Popolazione", cats[0].Name)
	assert.Equal(t, "Health", cats[1].Name)
}

func TestIstatHandler_ListDataflows(t *testing.T) {
	svc := new(MockIstatService)
	svc.On("DataflowsForCategory", mock.Anything, "22").Return([]sdmx.Dataflow{
		{ID: "22_289", NameIT: "Popolazione residente"},
	}, nil)
	svc.On("DataflowsForCategory", mock.Anything, " ").Return(nil, shared.ErrInvalidInput.WithMessage("identifier cannot be empty"))
	router := newIstatRouter(svc)

	w := serve(router, http.MethodGet, "/istat/categories/22/dataflows", "")
	require.Equal(t, http.StatusOK, w.Code)
	var flows []sdmx.Dataflow
	decodeData(t, w, &flows)
	require.Len(t, flows, 1)
	assert.Equal(t, "22_289", flows[0].ID)

	w = serve(router, http.MethodGet, "/istat/categories/%20/dataflows", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w).Error.Code)
}

func TestIstatHandler_ListViews(t *testing.T) {
	svc := new(MockIstatService)
	svc.On("AvailableViews", mock.Anything).Return([]warehouse.ViewInfo{
		{Name: "popolazione_residente_[22_289]", Description: "Popolazione residente"},
	}, nil)

	w := serve(newIstatRouter(svc), http.MethodGet, "/istat/views", "")

	require.Equal(t, http.StatusOK, w.Code)
	var views []warehouse.ViewInfo
	decodeData(t, w, &views)
	require.Len(t, views, 1)
	assert.Equal(t, "Popolazione residente", views[0].Description)
}

func TestIstatHandler_ListViews_Error(t *testing.T) {
	svc := new(MockIstatService)
	svc.On("AvailableViews", mock.Anything).Return(nil, assert.AnError)

	w := serve(newIstatRouter(svc), http.MethodGet, "/istat/views", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
