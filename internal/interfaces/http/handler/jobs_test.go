package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/infrastructure/scheduler"
	"github.com/statload/backend/internal/interfaces/http/dto"
	"github.com/statload/backend/tests/testutil"
)

func newJobRouter(jobs JobLookup) *gin.Engine {
	router := gin.New()
	router.GET("/jobs/:id", NewJobHandler(jobs).GetJob)
	return router
}

func TestJobHandler_GetJob(t *testing.T) {
	job := scheduler.NewJob(scheduler.JobKindDownload, "TPS00001", "Population", 3)
	job.Start()
	job.Fail("upstream returned 503")
	jobs := new(MockJobs)
	jobs.On("Get", job.ID).Return(*job, nil)

	w := serve(newJobRouter(jobs), http.MethodGet, "/jobs/"+job.ID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp JobResponse
	decodeData(t, w, &resp)
	assert.Equal(t, job.ID.String(), resp.ID)
	assert.Equal(t, "TPS00001", resp.DatasetCode)
	assert.Equal(t, string(job.Status), resp.Status)
	assert.Equal(t, "upstream returned 503", resp.Error)
	assert.NotNil(t, resp.StartedAt)
}

func TestJobHandler_GetJob_Errors(t *testing.T) {
	missing := testutil.TestJobID()
	jobs := new(MockJobs)

	testutil.RunHTTPTestCases(t, newJobRouter(jobs), []testutil.HTTPTestCase{
		{
			Name:           "malformed id",
			Path:           "/jobs/not-a-uuid",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedError:  dto.ErrCodeBadRequest,
		},
		{
			Name: "unknown job",
			Path: "/jobs/" + missing.String(),
			Setup: func(t *testing.T) {
				jobs.On("Get", missing).Return(scheduler.Job{}, scheduler.ErrJobNotFound).Once()
			},
			ExpectedStatus: http.StatusNotFound,
			ExpectedError:  dto.ErrCodeNotFound,
		},
	})
	jobs.AssertExpectations(t)
}
