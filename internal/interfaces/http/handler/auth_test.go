package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statload/backend/internal/infrastructure/auth"
	"github.com/statload/backend/internal/infrastructure/config"
	"github.com/statload/backend/internal/interfaces/http/dto"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	middleware.SetupValidator()

	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	authenticator := auth.NewAuthenticator(config.AuthConfig{AdminUser: "admin", AdminPasswordHash: hash})
	tokens := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "statload-test",
	})

	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(authenticator, tokens).Login)
	return router, tokens
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	router, tokens := newAuthRouter(t)

	w := postJSON(router, "/auth/login", `{"username":"admin","password":"correct horse"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "admin", resp.Username)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthHandler_Login_Rejected(t *testing.T) {
	router, _ := newAuthRouter(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"wrong password", `{"username":"admin","password":"battery staple"}`, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"unknown user", `{"username":"root","password":"correct horse"}`, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed json", `{"username":`, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/auth/login", tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotContains(t, w.Body.String(), "access_token")
		})
	}
}

func TestAuthHandler_Login_Disabled(t *testing.T) {
	middleware.SetupValidator()
	h := NewAuthHandler(
		auth.NewAuthenticator(config.AuthConfig{AdminUser: "admin"}),
		auth.NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars"}),
	)
	router := gin.New()
	router.POST("/auth/login", h.Login)

	w := postJSON(router, "/auth/login", `{"username":"admin","password":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/auth/login", `{"username":"admin","password":"anything"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
