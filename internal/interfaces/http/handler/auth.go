package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/statload/backend/internal/infrastructure/auth"
	"github.com/statload/backend/internal/infrastructure/logger"
	"github.com/statload/backend/internal/interfaces/http/middleware"
)

// Authenticator checks operator credentials
type Authenticator interface {
	Authenticate(username, password string) error
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(username string) (*auth.Token, error)
}

// AuthHandler handles operator login
type AuthHandler struct {
	BaseHandler
	authenticator Authenticator
	tokens        TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authenticator Authenticator, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		tokens:        tokens,
	}
}

// Login godoc
// @Summary      Operator login
// @Description  Exchanges the admin credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.authenticator.Authenticate(req.Username, req.Password); err != nil {
		logger.L(c.Request.Context()).Warn("Login rejected",
			zap.String("username", req.Username),
			zap.String("client_ip", c.ClientIP()),
		)
		h.HandleError(c, err)
		return
	}

	token, err := h.tokens.GenerateToken(req.Username)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
		Username:    req.Username,
	})
}
