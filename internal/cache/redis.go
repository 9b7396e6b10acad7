// Redis-backed session cache and login-attempt counters.
//
// Environment:
//   - REDIS_URL: redis://[:password@]host:port/db (rediss:// for TLS)
//   - REDIS_PASSWORD: overrides the password in REDIS_URL

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/config"
	"github.com/vaanipro/backend/internal/model"
)

const (
	SessionTTL = 24 * time.Hour

	sessionPrefix  = "session:"
	attemptsPrefix = "login_attempts:"
)

const (
	KindJSON = "json"
	KindText = "text"
)

// Value is the tagged envelope every non-counter entry is stored as.
type Value struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Text returns the payload of a text value.
func (v *Value) Text() string {
	var s string
	if err := json.Unmarshal(v.Data, &s); err != nil {
		return string(v.Data)
	}
	return s
}

// Decode unmarshals a json value into dest.
func (v *Value) Decode(dest any) error {
	if v.Kind != KindJSON {
		return fmt.Errorf("cache value kind is %q, not %q", v.Kind, KindJSON)
	}
	return json.Unmarshal(v.Data, dest)
}

// Store wraps a redis client. Every method swallows backend errors after
// logging them and returns a neutral value; callers never see a cache
// failure.
type Store struct {
	rc  *redis.Client
	log logrus.FieldLogger
}

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewStore(rc *redis.Client, log logrus.FieldLogger) *Store {
	return &Store{rc: rc, log: log.WithField("component", "session_cache")}
}

// Ping reports whether redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.rc == nil {
		return errors.New("redis client is nil")
	}
	return s.rc.Ping(ctx).Err()
}

func SessionKey(userID string) string {
	return sessionPrefix + userID
}

func AttemptsKey(identifier string) string {
	return attemptsPrefix + identifier
}

// Set stores value under key. Strings are stored as text, anything else as
// json.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping set")
		return false
	}

	envelope, err := encode(value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("failed to encode cache value")
		return false
	}

	if err := s.rc.Set(ctx, key, envelope, ttl).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Error("redis SET failed")
		return false
	}
	return true
}

// Get returns the stored envelope, or nil on miss or error. Values written
// without an envelope come back as text.
func (s *Store) Get(ctx context.Context, key string) *Value {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping get")
		return nil
	}

	raw, err := s.rc.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).WithField("key", key).Error("redis GET failed")
		}
		return nil
	}
	return decode(raw)
}

func (s *Store) Delete(ctx context.Context, key string) bool {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping delete")
		return false
	}

	if err := s.rc.Del(ctx, key).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Error("redis DEL failed")
		return false
	}
	return true
}

func (s *Store) SetSession(ctx context.Context, userID string, session model.Session, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return s.Set(ctx, SessionKey(userID), session, ttl)
}

func (s *Store) GetSession(ctx context.Context, userID string) *model.Session {
	value := s.Get(ctx, SessionKey(userID))
	if value == nil {
		return nil
	}

	var session model.Session
	if err := value.Decode(&session); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("discarding undecodable session")
		return nil
	}
	return &session
}

func (s *Store) DeleteSession(ctx context.Context, userID string) bool {
	return s.Delete(ctx, SessionKey(userID))
}

// IncrementCounter increments a counter and returns its new value, 0 on
// failure.
func (s *Store) IncrementCounter(ctx context.Context, key string) int64 {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping incr")
		return 0
	}

	n, err := s.rc.Incr(ctx, key).Result()
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("redis INCR failed")
		return 0
	}
	return n
}

func (s *Store) ExpireCounter(ctx context.Context, key string, ttl time.Duration) bool {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping expire")
		return false
	}

	ok, err := s.rc.Expire(ctx, key, ttl).Result()
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("redis EXPIRE failed")
		return false
	}
	return ok
}

// GetCounter returns the counter value, 0 when absent or unreadable.
func (s *Store) GetCounter(ctx context.Context, key string) int64 {
	if s.rc == nil {
		s.log.Warn("redis client is nil, skipping counter get")
		return 0
	}

	raw, err := s.rc.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WithError(err).WithField("key", key).Error("redis GET failed")
		}
		return 0
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("counter is not an integer")
		return 0
	}
	return n
}

func (s *Store) DeleteCounter(ctx context.Context, key string) bool {
	return s.Delete(ctx, key)
}

func encode(value any) (string, error) {
	var envelope Value
	var err error

	switch v := value.(type) {
	case string:
		envelope.Kind = KindText
		envelope.Data, err = json.Marshal(v)
	case []byte:
		envelope.Kind = KindText
		envelope.Data, err = json.Marshal(string(v))
	default:
		envelope.Kind = KindJSON
		envelope.Data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decode(raw string) *Value {
	var envelope Value
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && (envelope.Kind == KindJSON || envelope.Kind == KindText) && envelope.Data != nil {
		return &envelope
	}

	data, _ := json.Marshal(raw)
	return &Value{Kind: KindText, Data: data}
}
