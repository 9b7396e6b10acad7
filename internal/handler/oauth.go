package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/service"
)

// GoogleHandler drives the browser through the Google consent flow. Every
// outcome is a redirect.
type GoogleHandler struct {
	svc     *service.GoogleAuthService
	cookies *TokenCookies
	log     logrus.FieldLogger
}

func NewGoogleHandler(svc *service.GoogleAuthService, cookies *TokenCookies, log logrus.FieldLogger) *GoogleHandler {
	return &GoogleHandler{svc: svc, cookies: cookies, log: log.WithField("component", "google_handler")}
}

// Login godoc
// @Summary Start Google login
// @Tags auth
// @Success 302 {string} string "redirect"
// @Router /auth/google [get]
func (h *GoogleHandler) Login(c *gin.Context) {
	state := uuid.NewString()
	h.cookies.SetState(c, state)
	c.Redirect(http.StatusFound, h.svc.LoginURL(state))
}

// Callback godoc
// @Summary Google OAuth callback
// @Description Redirects to the frontend with the access token, or to the login page with error=auth_failed.
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "State issued by /auth/google"
// @Success 302 {string} string "redirect"
// @Router /auth/google/callback [get]
func (h *GoogleHandler) Callback(c *gin.Context) {
	expected := h.cookies.TakeState(c)
	if providerErr := c.Query("error"); providerErr != "" {
		h.fail(c, "provider returned error", nil)
		return
	}
	if expected == "" || c.Query("state") != expected {
		h.fail(c, "oauth state mismatch", nil)
		return
	}

	ctx := c.Request.Context()
	user, err := h.svc.ExchangeAndResolve(ctx, c.Query("code"))
	if err != nil {
		h.fail(c, "google login failed", err)
		return
	}

	redirect, accessToken, err := h.svc.Complete(ctx, user, c.GetHeader("User-Agent"))
	if err != nil {
		h.fail(c, "google login completion failed", err)
		return
	}

	h.cookies.SetAccess(c, accessToken)
	c.Redirect(http.StatusFound, redirect)
}

func (h *GoogleHandler) fail(c *gin.Context, msg string, err error) {
	entry := h.log
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(msg)
	c.Redirect(http.StatusFound, h.svc.FailureURL())
}
