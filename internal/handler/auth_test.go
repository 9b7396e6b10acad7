package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func signupAnn(t *testing.T, s *testServer) (*http.Cookie, *http.Cookie, model.AuthResponse) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/signup", model.SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	access := responseCookie(w, accessTokenCookie)
	refresh := responseCookie(w, refreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh, resp
}

func TestSignupSetsCookies(t *testing.T) {
	s := newTestServer(t)
	access, refresh, resp := signupAnn(t, s)

	assert.True(t, resp.Success)
	assert.Equal(t, "ann@x.com", resp.Email)
	assert.Equal(t, resp.AccessToken, access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)
	assert.NotEqual(t, access.Value, refresh.Value)
}

func TestSignupErrors(t *testing.T) {
	s := newTestServer(t)
	signupAnn(t, s)

	tests := []struct {
		name     string
		body     any
		wantCode string
	}{
		{name: "missing-fields", body: model.SignupRequest{Email: "b@x.com"}, wantCode: "MissingFields"},
		{name: "weak-password", body: model.SignupRequest{Name: "B", Email: "b@x.com", Password: "123"}, wantCode: "WeakPassword"},
		{name: "duplicate", body: model.SignupRequest{Name: "A", Email: "ANN@x.com", Password: "secret1"}, wantCode: "DuplicateEmail"},
		{name: "bad-json", body: "not-an-object", wantCode: "InvalidRequest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/auth/signup", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t)
	_, _, signup := signupAnn(t, s)

	for i := 0; i < 5; i++ {
		w := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "wrong"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "InvalidCredentials", decodeError(t, w).Code)
	}

	w := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TooManyAttempts", decodeError(t, w).Code)

	s.mr.FastForward(15*time.Minute + time.Second)
	w = s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, signup.AccessToken, resp.AccessToken)
	assert.NotNil(t, responseCookie(w, refreshTokenCookie))
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	s := newTestServer(t)
	signupAnn(t, s)

	unknown := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	wrong := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "nope"})
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, decodeError(t, wrong), decodeError(t, unknown))
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := responseCookie(w, name)
		require.NotNil(t, cookie, name)
		assert.Empty(t, cookie.Value)
		assert.True(t, cookie.MaxAge < 0, "cookie %s must be expired", name)
	}

	garbage := &http.Cookie{Name: accessTokenCookie, Value: "garbage"}
	w = s.do(t, http.MethodPost, "/auth/logout", nil, garbage)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutDropsSession(t *testing.T) {
	s := newTestServer(t)
	access, refresh, resp := signupAnn(t, s)

	w := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.mr.Exists("session:"+resp.ID))

	w = s.do(t, http.MethodPost, "/auth/logout", nil, access, refresh)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.mr.Exists("session:"+resp.ID))
}

func TestLogoutWithExpiredAccessDoesNotRenew(t *testing.T) {
	s := newTestServer(t)
	access, refresh, resp := signupAnn(t, s)

	w := s.do(t, http.MethodPost, "/auth/login", model.LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code)

	s.clock.Advance(16 * time.Minute)
	w = s.do(t, http.MethodPost, "/auth/logout", nil, access, refresh)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.mr.Exists("session:"+resp.ID))

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == accessTokenCookie {
			assert.Empty(t, cookie.Value)
		}
	}
}

func TestRefreshToken(t *testing.T) {
	s := newTestServer(t)
	_, refresh, _ := signupAnn(t, s)

	w := s.do(t, http.MethodPost, "/auth/refresh-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "NoRefreshToken", decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/auth/refresh-token", nil, &http.Cookie{Name: refreshTokenCookie, Value: "bad"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "InvalidRefreshToken", decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, responseCookie(w, accessTokenCookie))
	assert.Nil(t, responseCookie(w, refreshTokenCookie))

	s.clock.Advance(7 * 24 * time.Hour)
	w = s.do(t, http.MethodPost, "/auth/refresh-token", nil, refresh)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "RefreshTokenExpired", decodeError(t, w).Code)
}

func TestCheckAuthStates(t *testing.T) {
	s := newTestServer(t)
	access, refresh, resp := signupAnn(t, s)

	w := s.do(t, http.MethodGet, "/auth/check-auth", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "NoToken", decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/auth/profile", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	var me model.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, resp.ID, me.User.ID.Hex())

	// Bearer header is accepted when the cookie is absent.
	req := httptest.NewRequest(http.MethodGet, "/auth/check-auth", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	tampered := &http.Cookie{Name: accessTokenCookie, Value: access.Value[:len(access.Value)-2] + "xx"}
	w = s.do(t, http.MethodGet, "/auth/check-auth", nil, tampered, refresh)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "InvalidToken", decodeError(t, w).Code)
	assert.Nil(t, responseCookie(w, accessTokenCookie))

	s.clock.Advance(16 * time.Minute)
	w = s.do(t, http.MethodGet, "/auth/check-auth", nil, access)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	noRefresh := decodeError(t, w)
	assert.Equal(t, "NoRefreshToken", noRefresh.Code)
	assert.Contains(t, noRefresh.Message, "expired")

	w = s.do(t, http.MethodGet, "/auth/check-auth", nil, access, refresh)
	require.Equal(t, http.StatusOK, w.Code)
	renewed := responseCookie(w, accessTokenCookie)
	require.NotNil(t, renewed)
	assert.NotEqual(t, access.Value, renewed.Value)
	assert.Nil(t, responseCookie(w, refreshTokenCookie))

	w = s.do(t, http.MethodGet, "/auth/check-auth", nil, renewed)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckAuthDeletedUser(t *testing.T) {
	s := newTestServer(t)
	access, _, resp := signupAnn(t, s)

	id, err := primitive.ObjectIDFromHex(resp.ID)
	require.NoError(t, err)
	s.store.deleteUser(id)

	w := s.do(t, http.MethodGet, "/auth/check-auth", nil, access)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UserNotFound", decodeError(t, w).Code)
}

func TestGoogleLoginRedirect(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/auth/google", nil)
	require.Equal(t, http.StatusFound, w.Code)
	state := responseCookie(w, oauthStateCookie)
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Contains(t, w.Header().Get("Location"), "state="+state.Value)
}

func TestGoogleCallback(t *testing.T) {
	s := newTestServer(t)
	s.google.profile = &model.GoogleProfile{ProviderID: "g-1", Email: "gina@x.com", EmailVerified: true, DisplayName: "Gina"}
	state := &http.Cookie{Name: oauthStateCookie, Value: "state-1"}

	t.Run("state-mismatch", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/auth/google/callback?code=c&state=other", nil, state)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://front.test/login?error=auth_failed", w.Header().Get("Location"))
	})

	t.Run("provider-error", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/auth/google/callback?error=access_denied&state=state-1", nil, state)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "http://front.test/login?error=auth_failed", w.Header().Get("Location"))
	})

	t.Run("success", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/auth/google/callback?code=c&state=state-1", nil, state)
		require.Equal(t, http.StatusFound, w.Code)

		location, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/auth/callback", location.Path)
		token := location.Query().Get("token")
		require.NotEmpty(t, token)

		access := responseCookie(w, accessTokenCookie)
		require.NotNil(t, access)
		assert.Equal(t, token, access.Value)
		assert.Nil(t, responseCookie(w, refreshTokenCookie))

		me := s.do(t, http.MethodGet, "/auth/profile", nil, access)
		require.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), "gina@x.com")
	})

	t.Run("exchange-failure", func(t *testing.T) {
		s.google.profile = nil
		w := s.do(t, http.MethodGet, "/auth/google/callback?code=c&state=state-1", nil, state)
		require.Equal(t, http.StatusFound, w.Code)
		assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "error=auth_failed"))
	})
}
