package handler

import (
	"github.com/autopecas/backend/internal/application/identity"
	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin authentication requests
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest holds the admin credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"gerente@autopecas.com.br"`
	Password string `json:"password" binding:"required" example:"s3nh@Forte"`
}

// Login godoc
// @ID           loginAdmin
// @Summary      Admin login
// @Description  Checks the e-mail and password and issues an access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} APIResponse[identity.LoginResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me godoc
// @ID           getAuthMe
// @Summary      Current admin
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[identity.AdminInfo]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetAdminClaims(c)
	if claims == nil {
		h.HandleError(c, shared.ErrSessionExpired)
		return
	}
	adminID, err := claims.AdminUUID()
	if err != nil {
		h.HandleError(c, shared.ErrSessionExpired)
		return
	}

	info, err := h.authService.Me(c.Request.Context(), adminID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Logout godoc
// @ID           logoutAdmin
// @Summary      Admin logout
// @Description  Revokes the current access token
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetAdminClaims(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
