package config

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"BACKEND_URL":          "http://localhost:5000/",
		"FRONTEND_URL":         "http://localhost:5173",
		"JWT_ACCESS_SECRET":    "access-secret",
		"JWT_REFRESH_SECRET":   "refresh-secret",
		"GOOGLE_CLIENT_ID":     "client-id",
		"GOOGLE_CLIENT_SECRET": "client-secret",
		"MONGO_URI":            "mongodb://localhost:27017",
		"REDIS_URL":            "redis://localhost:6379/0",
	}
}

func lookupFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5000", cfg.Server.BackendURL)
	assert.Equal(t, "http://localhost:5000/auth/google/callback", cfg.Google.CallbackURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
	assert.Equal(t, "vaani", cfg.Mongo.Database)
}

func TestFromEnvProductionCookies(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"

	cfg, err := FromEnv(lookupFrom(env))
	require.NoError(t, err)
	assert.True(t, cfg.Cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cfg.Cookie.SameSite)
}

func TestFromEnvFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{name: "missing-access-secret", mutate: func(e map[string]string) { delete(e, "JWT_ACCESS_SECRET") }},
		{name: "missing-refresh-secret", mutate: func(e map[string]string) { delete(e, "JWT_REFRESH_SECRET") }},
		{name: "missing-redis", mutate: func(e map[string]string) { delete(e, "REDIS_URL") }},
		{name: "missing-google", mutate: func(e map[string]string) { delete(e, "GOOGLE_CLIENT_SECRET") }},
		{name: "same-secrets", mutate: func(e map[string]string) { e["JWT_REFRESH_SECRET"] = e["JWT_ACCESS_SECRET"] }},
		{name: "bad-ttl", mutate: func(e map[string]string) { e["JWT_ACCESS_TTL"] = "soon" }},
		{name: "none-without-secure", mutate: func(e map[string]string) { e["AUTH_COOKIE_SAMESITE"] = "none" }},
		{name: "bad-samesite", mutate: func(e map[string]string) { e["AUTH_COOKIE_SAMESITE"] = "sometimes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			tt.mutate(env)
			_, err := FromEnv(lookupFrom(env))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMisconfigured))
		})
	}
}
