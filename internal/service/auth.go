package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/cache"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
	maxLoginAttempts  = 5
	loginLockout      = 15 * time.Minute
	hashCost          = 10
)

// UserRepository is the credential store.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	LinkGoogleAccount(ctx context.Context, id primitive.ObjectID, googleID, picture string) (*model.User, error)
}

// SessionCache is best-effort: every method reports failure through its
// return value and never blocks the calling flow.
type SessionCache interface {
	SetSession(ctx context.Context, userID string, session model.Session, ttl time.Duration) bool
	GetSession(ctx context.Context, userID string) *model.Session
	DeleteSession(ctx context.Context, userID string) bool
	IncrementCounter(ctx context.Context, key string) int64
	ExpireCounter(ctx context.Context, key string, ttl time.Duration) bool
	GetCounter(ctx context.Context, key string) int64
	DeleteCounter(ctx context.Context, key string) bool
}

type AuthResult struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Identity is the outcome of authenticating a request. RenewedAccessToken is
// set when the access token was re-minted from the refresh token.
type Identity struct {
	User               *model.User
	RenewedAccessToken string
}

type AuthService struct {
	users     UserRepository
	sessions  SessionCache
	tokens    *TokenService
	log       logrus.FieldLogger
	validate  *validator.Validate
	hashCost  int
	dummyHash []byte
	now       func() time.Time
}

func NewAuthService(users UserRepository, sessions SessionCache, tokens *TokenService, log logrus.FieldLogger) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		log:      log.WithField("component", "auth"),
		validate: validator.New(),
		hashCost: hashCost,
		now:      time.Now,
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.hashCost)
	return s
}

func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if missing := missingFields(map[string]string{"name": name, "email": email, "password": password}, "name", "email", "password"); missing != "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, missing)
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return nil, ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !db.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	// Tokens are only minted for a user that is already persisted.
	return s.issuePair(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if missing := missingFields(map[string]string{"email": email, "password": password}, "email", "password"); missing != "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, missing)
	}

	key := cache.AttemptsKey(email)
	if s.sessions.GetCounter(ctx, key) >= maxLoginAttempts {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if !db.IsNotFound(err) {
			return nil, err
		}
		// Same cost as a real comparison so a missing account is not
		// distinguishable by latency.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.recordFailedLogin(ctx, key)
		return nil, ErrInvalidCredentials
	}

	hash := []byte(user.Password)
	if len(hash) == 0 {
		hash = s.dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || user.Password == "" {
		s.recordFailedLogin(ctx, key)
		return nil, ErrInvalidCredentials
	}

	s.sessions.DeleteCounter(ctx, key)

	result, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	s.writeSession(ctx, user, result.AccessToken)
	return result, nil
}

// Logout drops the session if the caller is known. It never fails.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if !s.sessions.DeleteSession(ctx, userID) {
		s.log.WithField("user_id", userID).Warn("session delete failed during logout")
	}
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrNoRefreshToken
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.lookupUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: accessToken}, nil
}

// Authenticate resolves the identity behind a request. An expired access
// token falls back to the refresh token; a tampered one does not.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, refreshToken string) (*Identity, error) {
	return s.resolve(ctx, accessToken, refreshToken, true)
}

// Identify resolves the identity like Authenticate but never mints a
// replacement access token.
func (s *AuthService) Identify(ctx context.Context, accessToken, refreshToken string) (*Identity, error) {
	return s.resolve(ctx, accessToken, refreshToken, false)
}

func (s *AuthService) resolve(ctx context.Context, accessToken, refreshToken string, renew bool) (*Identity, error) {
	accessToken = strings.TrimSpace(accessToken)
	refreshToken = strings.TrimSpace(refreshToken)

	if accessToken == "" && refreshToken == "" {
		return nil, ErrNoToken
	}

	if accessToken != "" {
		claims, err := s.tokens.VerifyAccessToken(accessToken)
		switch {
		case err == nil:
			user, err := s.lookupUser(ctx, claims.UserID)
			if err != nil {
				return nil, err
			}
			return &Identity{User: user}, nil
		case errors.Is(err, ErrTokenExpired):
			if refreshToken == "" {
				return nil, fmt.Errorf("%w: access token expired", ErrNoRefreshToken)
			}
		default:
			return nil, ErrInvalidToken
		}
	}

	if !renew {
		claims, err := s.tokens.VerifyRefreshToken(refreshToken)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				return nil, ErrRefreshTokenExpired
			}
			return nil, ErrInvalidRefreshToken
		}
		user, err := s.lookupUser(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		return &Identity{User: user}, nil
	}

	result, err := s.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &Identity{User: result.User, RenewedAccessToken: result.AccessToken}, nil
}

func (s *AuthService) lookupUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issuePair(user *model.User) (*AuthResult, error) {
	userID := user.ID.Hex()
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *AuthService) writeSession(ctx context.Context, user *model.User, accessToken string) {
	session := model.Session{
		UserID:      user.ID.Hex(),
		Email:       user.Email,
		LastLogin:   s.now().UTC(),
		AccessToken: accessToken,
	}
	if !s.sessions.SetSession(ctx, session.UserID, session, cache.SessionTTL) {
		s.log.WithField("user_id", session.UserID).Warn("session write failed")
	}
}

// recordFailedLogin is not atomic with the preceding counter read; under
// concurrent attempts the lockout may admit a few extra tries.
func (s *AuthService) recordFailedLogin(ctx context.Context, key string) {
	s.sessions.IncrementCounter(ctx, key)
	s.sessions.ExpireCounter(ctx, key, loginLockout)
}

// NormalizeEmail trims and lower-cases an address. All store lookups use the
// normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func missingFields(values map[string]string, order ...string) string {
	var missing []string
	for _, key := range order {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	return strings.Join(missing, ", ")
}
