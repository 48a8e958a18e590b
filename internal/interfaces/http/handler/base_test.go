package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/domain/shared"
	"github.com/statload/backend/internal/infrastructure/auth"
	"github.com/statload/backend/internal/infrastructure/scheduler"
	"github.com/statload/backend/internal/interfaces/http/dto"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// decodeData unmarshals the data field of the envelope into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound.WithMessage("catalogue entry X not found"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped invalid input", fmt.Errorf("browse: %w", shared.ErrInvalidInput), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"upstream", shared.ErrUpstream, http.StatusBadGateway, dto.ErrCodeUpstream},
		{"empty dataset", shared.ErrEmptyDataset, http.StatusUnprocessableEntity, dto.ErrCodeEmptyDataset},
		{"job not found", scheduler.ErrJobNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"invalid job", scheduler.ErrInvalidJob, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"queue full", scheduler.ErrJobQueueFull, http.StatusServiceUnavailable, dto.ErrCodeQueueFull},
		{"scheduler stopped", scheduler.ErrSchedulerNotRunning, http.StatusServiceUnavailable, dto.ErrCodeQueueFull},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	(&BaseHandler{}).HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_UnknownErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	(&BaseHandler{}).HandleError(c, fmt.Errorf("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "An unexpected error occurred", decode(t, w).Error.Message)
}

func TestBaseHandler_List(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	(&BaseHandler{}).List(c, []string{"a", "b"}, 2)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
}
