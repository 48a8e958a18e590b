package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	_ "github.com/statload/backend/docs"
	appeurostat "github.com/statload/backend/internal/application/eurostat"
	"github.com/statload/backend/internal/domain/eurostat"
	"github.com/statload/backend/internal/domain/sdmx"
	"github.com/statload/backend/internal/infrastructure/auth"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/infrastructure/scheduler"
	"github.com/statload/backend/internal/infrastructure/warehouse"
	"github.com/statload/backend/internal/interfaces/http/handler"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuth struct{}

func (stubAuth) Authenticate(username, password string) error {
	if username == "admin" && password == "secret" {
		return nil
	}
	return auth.ErrInvalidCredentials
}

func (stubAuth) GenerateToken(username string) (*auth.Token, error) {
	return &auth.Token{AccessToken: "token", TokenType: "Bearer"}, nil
}

type stubEurostat struct{}

func (stubEurostat) ListViews(context.Context) ([]eurostat.ViewEntry, error) { return nil, nil }
func (stubEurostat) ListDatasets(context.Context) ([]eurostat.DatasetSummary, error) {
	return nil, nil
}
func (stubEurostat) RootCategories(context.Context) ([]*eurostat.Node, error) { return nil, nil }
func (stubEurostat) Browse(context.Context, []string) (*appeurostat.BrowseResult, error) {
	return &appeurostat.BrowseResult{}, nil
}
func (stubEurostat) IsUpToDate(context.Context, string) (bool, *eurostat.DownloadLog, error) {
	return false, nil, nil
}

type stubJobs struct{}

func (stubJobs) Submit(kind scheduler.JobKind, code, title string) (scheduler.Job, error) {
	return *scheduler.NewJob(kind, code, title, 0), nil
}

func (stubJobs) Get(id uuid.UUID) (scheduler.Job, error) {
	return scheduler.Job{}, scheduler.ErrJobNotFound
}

type stubIstat struct{}

func (stubIstat) Categories(context.Context) ([]sdmx.Category, error) { return nil, nil }
func (stubIstat) DataflowsForCategory(context.Context, string) ([]sdmx.Dataflow, error) {
	return nil, nil
}
func (stubIstat) AvailableViews(context.Context) ([]warehouse.ViewInfo, error) { return nil, nil }

func requireBearer(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer ok" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	c.Next()
}

func setupRoutes(t *testing.T) *gin.Engine {
	t.Helper()
	engine, release := NewEngine(EngineConfig{Env: "test"}, zap.NewNop())
	t.Cleanup(release)

	RegisterRoutes(engine, Handlers{
		System:   handler.NewSystemHandler(stubPinger{}, "statload", "test"),
		Auth:     handler.NewAuthHandler(stubAuth{}, stubAuth{}),
		Eurostat: handler.NewEurostatHandler(stubEurostat{}, stubJobs{}),
		Istat:    handler.NewIstatHandler(stubIstat{}),
		Jobs:     handler.NewJobHandler(stubJobs{}),
	}, requireBearer)
	return engine
}

func TestRegisterRoutes_Public(t *testing.T) {
	engine := setupRoutes(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/health", http.StatusOK},
		{"GET", "/api/v1/system/info", http.StatusOK},
		{"GET", "/api/v1/eurostat/views", http.StatusOK},
		{"GET", "/api/v1/eurostat/datasets", http.StatusOK},
		{"GET", "/api/v1/istat/categories", http.StatusOK},
		{"GET", "/api/v1/istat/categories/Z0100AGR/dataflows", http.StatusOK},
		{"GET", "/api/v1/istat/views", http.StatusOK},
		{"GET", "/api/v1/jobs/not-a-uuid", http.StatusBadRequest},
		{"GET", "/api/v1/jobs/" + uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRegisterRoutes_DownloadRequiresAuth(t *testing.T) {
	engine := setupRoutes(t)

	for _, path := range []string{
		"/api/v1/eurostat/datasets/nama_10_gdp/download",
		"/api/v1/eurostat/views/nama_10_gdp/refresh",
	} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest("POST", path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			req = httptest.NewRequest("POST", path, nil)
			req.Header.Set("Authorization", "Bearer ok")
			w = httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusAccepted, w.Code)
		})
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("sets request ID and security headers", func(t *testing.T) {
		engine := setupRoutes(t)

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("applies rate limit", func(t *testing.T) {
		engine, release := NewEngine(EngineConfig{
			HTTP: config.HTTPConfig{
				RateLimitEnabled:  true,
				RateLimitRequests: 1,
				RateLimitWindow:   time.Hour,
			},
		}, zap.NewNop())
		defer release()
		engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

		codes := make([]int, 0, 2)
		for range 2 {
			req := httptest.NewRequest("GET", "/ping", nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	})
}

func TestRegisterDocs(t *testing.T) {
	get := func(engine *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	t.Run("disabled", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, config.SwaggerConfig{}, requireBearer)

		assert.Equal(t, http.StatusNotFound, get(engine, "/swagger/index.html", "").Code)
	})

	t.Run("serves the ui and the document", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, config.SwaggerConfig{Enabled: true}, requireBearer)

		assert.Equal(t, http.StatusOK, get(engine, "/swagger/index.html", "").Code)

		w := get(engine, "/swagger/doc.json", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "statload API")
		assert.Contains(t, w.Body.String(), "/eurostat/datasets/{code}/download")
	})

	t.Run("requires auth when configured", func(t *testing.T) {
		engine := gin.New()
		RegisterDocs(engine, config.SwaggerConfig{Enabled: true, RequireAuth: true}, requireBearer)

		assert.Equal(t, http.StatusUnauthorized, get(engine, "/swagger/doc.json", "").Code)
		assert.Equal(t, http.StatusOK, get(engine, "/swagger/doc.json", "Bearer ok").Code)
	})
}
