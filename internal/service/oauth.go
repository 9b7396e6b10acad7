package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/cache"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoogleProvider performs the OAuth handshake with Google.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*model.GoogleProfile, error)
}

type GoogleAuthService struct {
	provider        GoogleProvider
	users           UserRepository
	sessions        SessionCache
	tokens          *TokenService
	frontendURL     string
	minimalRedirect func(userAgent string) bool
	log             logrus.FieldLogger
	now             func() time.Time
}

func NewGoogleAuthService(provider GoogleProvider, users UserRepository, sessions SessionCache, tokens *TokenService, frontendURL string, log logrus.FieldLogger) *GoogleAuthService {
	return &GoogleAuthService{
		provider:        provider,
		users:           users,
		sessions:        sessions,
		tokens:          tokens,
		frontendURL:     strings.TrimRight(frontendURL, "/"),
		minimalRedirect: NeedsMinimalRedirect,
		log:             log.WithField("component", "google_auth"),
		now:             time.Now,
	}
}

// WithRedirectPolicy swaps the user-agent predicate that picks the minimal
// redirect shape.
func (s *GoogleAuthService) WithRedirectPolicy(policy func(userAgent string) bool) *GoogleAuthService {
	s.minimalRedirect = policy
	return s
}

func (s *GoogleAuthService) LoginURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// FailureURL is where every failed federated login ends up.
func (s *GoogleAuthService) FailureURL() string {
	return s.frontendURL + "/login?error=auth_failed"
}

func (s *GoogleAuthService) ExchangeAndResolve(ctx context.Context, code string) (*model.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: missing authorization code", ErrInvalidProfile)
	}
	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}
	return s.ResolveUser(ctx, profile)
}

// ResolveUser maps a Google profile to a user: an existing Google-linked
// user first, then an existing user with the same email (which gets linked),
// otherwise a new passwordless verified user.
func (s *GoogleAuthService) ResolveUser(ctx context.Context, profile *model.GoogleProfile) (*model.User, error) {
	if profile == nil || strings.TrimSpace(profile.ProviderID) == "" || strings.TrimSpace(profile.Email) == "" {
		return nil, ErrInvalidProfile
	}
	email := NormalizeEmail(profile.Email)

	// A concurrent first login for the same account can lose the insert race;
	// the second pass then finds the winner's record.
	for attempt := 0; attempt < 2; attempt++ {
		user, err := s.users.GetUserByGoogleID(ctx, profile.ProviderID)
		if err == nil {
			return user, nil
		}
		if !db.IsNotFound(err) {
			return nil, err
		}

		user, err = s.users.GetUserByEmail(ctx, email)
		if err == nil {
			if !profile.EmailVerified {
				return nil, ErrUnverifiedEmail
			}
			linked, err := s.users.LinkGoogleAccount(ctx, user.ID, profile.ProviderID, profile.Photo)
			if err != nil {
				return nil, err
			}
			s.log.WithField("user_id", linked.ID.Hex()).Info("linked google account to existing user")
			return linked, nil
		}
		if !db.IsNotFound(err) {
			return nil, err
		}

		name := strings.TrimSpace(profile.DisplayName)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &model.User{
			ID:             primitive.NewObjectID(),
			Name:           name,
			Email:          email,
			GoogleID:       profile.ProviderID,
			ProfilePicture: profile.Photo,
			IsVerified:     true,
		}
		err = s.users.CreateUser(ctx, user)
		if err == nil {
			s.log.WithField("user_id", user.ID.Hex()).Info("created user from google login")
			return user, nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not resolve google user", db.ErrDuplicate)
}

// Complete mints the access token, records the session and builds the
// frontend redirect. No refresh token is issued on this path.
func (s *GoogleAuthService) Complete(ctx context.Context, user *model.User, userAgent string) (string, string, error) {
	userID := user.ID.Hex()
	accessToken, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return "", "", err
	}

	session := model.Session{
		UserID:      userID,
		Email:       user.Email,
		LastLogin:   s.now().UTC(),
		AccessToken: accessToken,
	}
	if !s.sessions.SetSession(ctx, userID, session, cache.SessionTTL) {
		s.log.WithField("user_id", userID).Warn("session write failed")
	}

	redirect, err := s.callbackURL(user, accessToken, s.minimalRedirect(userAgent))
	if err != nil {
		return "", "", err
	}
	return redirect, accessToken, nil
}

func (s *GoogleAuthService) callbackURL(user *model.User, token string, minimal bool) (string, error) {
	q := url.Values{}
	q.Set("token", token)
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))

	if !minimal {
		blob, err := json.Marshal(model.RedirectUser{
			ID:             user.ID.Hex(),
			Name:           user.Name,
			Email:          user.Email,
			ProfilePicture: user.ProfilePicture,
			Token:          token,
		})
		if err != nil {
			return "", err
		}
		q.Set("user", string(blob))
	}

	return s.frontendURL + "/auth/callback?" + q.Encode(), nil
}
