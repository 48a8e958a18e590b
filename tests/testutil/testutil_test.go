package testutil

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockDB(t *testing.T) {
	mdb := NewMockDB(t)
	defer mdb.Close()

	mdb.Mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "istat"`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, mdb.DB.Exec(`CREATE SCHEMA IF NOT EXISTS "istat"`).Error)
	mdb.ExpectationsWereMet(t)
}

func TestTestJobID(t *testing.T) {
	assert.Equal(t, TestJobID(), TestJobID())
	assert.NotEqual(t, uuid.Nil, TestJobID())
}

func newEnvelopeRouter() *gin.Engine {
	router := gin.New()
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"view": "pop_[tps00001]"}})
	})
	router.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"code": "ERR_BAD_REQUEST"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"title": body["title"],
			"auth":  c.GetHeader("Authorization"),
		}})
	})
	return router
}

func TestServe(t *testing.T) {
	tc := Serve(newEnvelopeRouter(), http.MethodPost, "/echo", `{"title":"GDP"}`, map[string]string{"Authorization": "Bearer t"})

	assert.Equal(t, http.StatusOK, tc.ResponseCode())
	assert.Equal(t, "application/json", tc.Request.Header.Get("Content-Type"))
	AssertSuccessResponse(t, tc)

	type echo struct {
		Data struct {
			Title string `json:"title"`
			Auth  string `json:"auth"`
		} `json:"data"`
	}
	resp := JSONResponseAs[echo](t, tc)
	assert.Equal(t, "GDP", resp.Data.Title)
	assert.Equal(t, "Bearer t", resp.Data.Auth)
}

func TestRunHTTPTestCases(t *testing.T) {
	setupRan := false
	validated := 0

	RunHTTPTestCases(t, newEnvelopeRouter(), []HTTPTestCase{
		{
			Name:           "defaults to GET",
			Path:           "/ok",
			Setup:          func(t *testing.T) { setupRan = true },
			ExpectedStatus: http.StatusOK,
			Validate: func(t *testing.T, tc *TestContext) {
				validated++
				assert.Equal(t, "pop_[tps00001]", JSONResponse(t, tc)["data"].(map[string]interface{})["view"])
			},
		},
		{
			Name:           "error envelope",
			Method:         http.MethodPost,
			Path:           "/echo",
			Body:           `{"title":`,
			ExpectedStatus: http.StatusBadRequest,
			ExpectedError:  "ERR_BAD_REQUEST",
			Validate:       func(t *testing.T, tc *TestContext) { validated++ },
		},
	})

	assert.True(t, setupRan)
	assert.Equal(t, 2, validated)
}
