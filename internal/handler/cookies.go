package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vaanipro/backend/internal/config"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
	oauthStateCookie   = "oauthState"

	oauthStateTTL = 10 * time.Minute
)

// TokenCookies writes and clears the httpOnly token cookies.
type TokenCookies struct {
	cfg        config.CookieConfig
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCookies(cfg config.CookieConfig, accessTTL, refreshTTL time.Duration) *TokenCookies {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &TokenCookies{cfg: cfg, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (t *TokenCookies) SetTokens(c *gin.Context, accessToken, refreshToken string) {
	t.SetAccess(c, accessToken)
	t.set(c, refreshTokenCookie, refreshToken, int(t.refreshTTL.Seconds()), t.cfg.SameSite)
}

func (t *TokenCookies) SetAccess(c *gin.Context, accessToken string) {
	t.set(c, accessTokenCookie, accessToken, int(t.accessTTL.Seconds()), t.cfg.SameSite)
}

func (t *TokenCookies) Clear(c *gin.Context) {
	// A negative MaxAge is emitted as Max-Age=0.
	t.set(c, accessTokenCookie, "", -1, t.cfg.SameSite)
	t.set(c, refreshTokenCookie, "", -1, t.cfg.SameSite)
}

// Tokens returns the access token (cookie first, then bearer header) and the
// refresh token cookie. Either may be empty.
func (t *TokenCookies) Tokens(c *gin.Context) (string, string) {
	access, _ := c.Cookie(accessTokenCookie)
	if access == "" {
		access = bearerToken(c.GetHeader("Authorization"))
	}
	refresh, _ := c.Cookie(refreshTokenCookie)
	return access, refresh
}

// The state cookie must survive the top-level redirect back from Google, so
// it is always Lax.
func (t *TokenCookies) SetState(c *gin.Context, state string) {
	t.set(c, oauthStateCookie, state, int(oauthStateTTL.Seconds()), http.SameSiteLaxMode)
}

func (t *TokenCookies) TakeState(c *gin.Context) string {
	state, _ := c.Cookie(oauthStateCookie)
	t.set(c, oauthStateCookie, "", -1, http.SameSiteLaxMode)
	return state
}

func (t *TokenCookies) set(c *gin.Context, name, value string, maxAge int, sameSite http.SameSite) {
	c.SetSameSite(sameSite)
	c.SetCookie(name, value, maxAge, t.cfg.Path, t.cfg.Domain, t.cfg.Secure, true)
}
