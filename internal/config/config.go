package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMisconfigured = errors.New("config invalid")

type Config struct {
	Server ServerConfig
	Auth   AuthConfig
	Cookie CookieConfig
	Google GoogleConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Gemini GeminiConfig
	Agent  AgentConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	BackendURL     string
	FrontendURL    string
	AllowedOrigins []string
}

// Production reports whether the process runs with APP_ENV=production.
func (c ServerConfig) Production() bool {
	return c.Env == "production"
}

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	URL      string
	Password string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AgentConfig struct {
	BaseURL    string
	StreamPath string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads a .env file when present and builds the configuration from the
// environment. Missing secrets are reported here so the process never starts
// half-configured.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from an arbitrary lookup function.
func FromEnv(lookup func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if val := strings.TrimSpace(lookup(key)); val != "" {
			return val
		}
		return fallback
	}

	env := strings.ToLower(get("APP_ENV", get("NODE_ENV", "development")))

	var missing []string
	required := func(key string) string {
		val := get(key, "")
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	cfg := Config{
		Server: ServerConfig{
			Port:        get("PORT", "5000"),
			Env:         env,
			BackendURL:  strings.TrimRight(required("BACKEND_URL"), "/"),
			FrontendURL: strings.TrimRight(required("FRONTEND_URL"), "/"),
		},
		Auth: AuthConfig{
			AccessSecret:  required("JWT_ACCESS_SECRET"),
			RefreshSecret: required("JWT_REFRESH_SECRET"),
		},
		Google: GoogleConfig{
			ClientID:     required("GOOGLE_CLIENT_ID"),
			ClientSecret: required("GOOGLE_CLIENT_SECRET"),
		},
		Mongo: MongoConfig{
			URI:      required("MONGO_URI"),
			Database: get("MONGO_DATABASE", "vaani"),
		},
		Redis: RedisConfig{
			URL:      required("REDIS_URL"),
			Password: get("REDIS_PASSWORD", ""),
		},
		Gemini: GeminiConfig{
			APIKey: get("GEMINI_API_KEY", ""),
			Model:  get("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Agent: AgentConfig{
			BaseURL:    strings.TrimRight(get("AGENT_URL", ""), "/"),
			StreamPath: get("AGENT_STREAM_PATH", "/api/react-search-streaming"),
		},
		Log: LogConfig{
			Level:  get("LOG_LEVEL", "info"),
			Format: get("LOG_FORMAT", ""),
		},
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: missing required env: %s", ErrMisconfigured, strings.Join(missing, ", "))
	}

	if cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		return Config{}, fmt.Errorf("%w: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ", ErrMisconfigured)
	}

	var err error
	if cfg.Auth.AccessTTL, err = time.ParseDuration(get("JWT_ACCESS_TTL", "15m")); err != nil {
		return Config{}, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}
	if cfg.Auth.RefreshTTL, err = time.ParseDuration(get("JWT_REFRESH_TTL", "168h")); err != nil {
		return Config{}, fmt.Errorf("%w: invalid JWT_REFRESH_TTL", ErrMisconfigured)
	}

	production := cfg.Server.Production()
	cookieSecure, err := parseBool(lookup("AUTH_COOKIE_SECURE"), production)
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	defaultSameSite := "lax"
	if production {
		defaultSameSite = "none"
	}
	cookieSameSite, err := parseSameSite(get("AUTH_COOKIE_SAMESITE", defaultSameSite))
	if err != nil {
		return Config{}, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}
	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return Config{}, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cfg.Cookie = CookieConfig{
		Path:     get("AUTH_COOKIE_PATH", "/"),
		Domain:   get("AUTH_COOKIE_DOMAIN", ""),
		Secure:   cookieSecure,
		SameSite: cookieSameSite,
	}

	cfg.Google.CallbackURL = get("GOOGLE_CALLBACK_URL", cfg.Server.BackendURL+"/auth/google/callback")
	cfg.Server.AllowedOrigins = splitList(get("CORS_ALLOWED_ORIGINS", cfg.Server.FrontendURL))

	return cfg, nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}

func parseSameSite(value string) (http.SameSite, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite value %q", value)
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
