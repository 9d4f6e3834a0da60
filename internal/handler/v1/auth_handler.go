package v1

import (
	"context"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthService interface {
	Login(ctx context.Context, role domain.Role, login, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type AuthHandler struct {
	svc AuthService
	log *zap.Logger
}

func NewAuthHandler(svc AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type loginRequest struct {
	// Email for doctors and patients, username for admins.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login handles POST /auth/:role/login.
func (h *AuthHandler) Login(c *gin.Context) {
	role := domain.Role(c.Param("role"))
	if !role.IsValid() {
		respondError(c, http.StatusNotFound, "unknown role")
		return
	}

	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), role, req.Login, req.Password)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, pair)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, pair)
}
