package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaanipro/backend/internal/model"
	"github.com/vaanipro/backend/internal/service"
)

type AuthHandler struct {
	svc     *service.AuthService
	cookies *TokenCookies
}

func NewAuthHandler(svc *service.AuthService, cookies *TokenCookies) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

// Signup godoc
// @Summary Create a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.SignupRequest true "Name, email and password"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	result, err := h.svc.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.SetTokens(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusCreated, model.NewAuthResponse(result.User, result.AccessToken))
}

// Login godoc
// @Summary Login with email and password
// @Description Five failed attempts lock the email out for 15 minutes.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Email and password"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errInvalidBody)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.SetTokens(c, result.AccessToken, result.RefreshToken)
	c.JSON(http.StatusOK, model.NewAuthResponse(result.User, result.AccessToken))
}

// Logout godoc
// @Summary Logout
// @Description Drops the session when the caller is known and always clears both cookies.
// @Tags auth
// @Produce json
// @Success 200 {object} model.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if user := GetAuthUser(c); user != nil {
		h.svc.Logout(c.Request.Context(), user.ID.Hex())
	}
	h.cookies.Clear(c)
	c.JSON(http.StatusOK, model.SuccessResponse{Success: true, Message: "Logged out successfully"})
}

// RefreshToken godoc
// @Summary Mint a new access token
// @Description Uses the refreshToken cookie. The refresh token is not rotated.
// @Tags auth
// @Produce json
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, _ := c.Cookie(refreshTokenCookie)
	result, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	h.cookies.SetAccess(c, result.AccessToken)
	c.JSON(http.StatusOK, model.NewAuthResponse(result.User, result.AccessToken))
}

// Me godoc
// @Summary Current user
// @Description Served by both /auth/check-auth and /auth/profile.
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/check-auth [get]
// @Router /auth/profile [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrNoToken)
		return
	}
	c.JSON(http.StatusOK, model.UserResponse{Success: true, User: user})
}
