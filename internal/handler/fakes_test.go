package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/vaanipro/backend/internal/cache"
	"github.com/vaanipro/backend/internal/client"
	"github.com/vaanipro/backend/internal/config"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/logging"
	"github.com/vaanipro/backend/internal/model"
	"github.com/vaanipro/backend/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*model.User
	chats map[string]*model.Chat
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users: map[primitive.ObjectID]*model.User{},
		chats: map[string]*model.Chat{},
	}
}

func (m *memoryStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email || (user.GoogleID != "" && existing.GoogleID == user.GoogleID) {
			return db.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *memoryStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, db.ErrNotFound
	}
	return m.findUser(func(u *model.User) bool { return u.ID == objectID })
}

func (m *memoryStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.Email == email })
}

func (m *memoryStore) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.GoogleID == googleID })
}

func (m *memoryStore) LinkGoogleAccount(ctx context.Context, id primitive.ObjectID, googleID, picture string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	user.GoogleID = googleID
	if user.ProfilePicture == "" {
		user.ProfilePicture = picture
	}
	copied := *user
	return &copied, nil
}

func (m *memoryStore) findUser(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *memoryStore) deleteUser(id primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *memoryStore) CreateChat(ctx context.Context, chat *model.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chat.UserID + "/" + chat.ChatID
	if _, ok := m.chats[key]; ok {
		return db.ErrDuplicate
	}
	copied := *chat
	m.chats[key] = &copied
	return nil
}

func (m *memoryStore) GetChat(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[userID+"/"+chatID]
	if !ok {
		return nil, db.ErrNotFound
	}
	copied := *chat
	return &copied, nil
}

func (m *memoryStore) UpdateChat(ctx context.Context, userID, chatID, title string, messages []model.ChatMessage, lastUpdated *time.Time) (*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[userID+"/"+chatID]
	if !ok {
		return nil, db.ErrNotFound
	}
	chat.Title = title
	chat.Messages = messages
	if lastUpdated != nil {
		chat.LastUpdated = *lastUpdated
	}
	copied := *chat
	return &copied, nil
}

func (m *memoryStore) DeleteChat(ctx context.Context, userID, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "/" + chatID
	if _, ok := m.chats[key]; !ok {
		return db.ErrNotFound
	}
	delete(m.chats, key)
	return nil
}

func (m *memoryStore) ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ChatSummary
	for _, chat := range m.chats {
		if chat.UserID == userID {
			out = append(out, model.ChatSummary{ID: chat.ChatID, Title: chat.Title, LastUpdated: chat.LastUpdated, MessageCount: len(chat.Messages)})
		}
	}
	return out, nil
}

type fakeGoogle struct {
	profile *model.GoogleProfile
	err     error
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.test/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(ctx context.Context, code string) (*model.GoogleProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testServer struct {
	router *gin.Engine
	store  *memoryStore
	mr     *miniredis.Miniredis
	clock  *testClock
	tokens *service.TokenService
	google *fakeGoogle
}

func newTestServer(t *testing.T, opts ...func(*Dependencies)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	log := logging.Discard()
	sessions := cache.NewStore(rc, log)
	store := newMemoryStore()
	clock := &testClock{now: time.Now().Truncate(time.Second)}

	tokens, err := service.NewTokenService(config.AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	tokens = tokens.WithClock(clock.Now)

	google := &fakeGoogle{}
	deps := Dependencies{
		Auth:           service.NewAuthService(store, sessions, tokens, log),
		Google:         service.NewGoogleAuthService(google, store, sessions, tokens, "http://front.test", log),
		Chats:          service.NewChatService(store, log),
		AI:             service.NewAIService(nil, log),
		Agent:          client.NewAgentClient(config.AgentConfig{}, log),
		Cookies:        NewTokenCookies(config.CookieConfig{Path: "/", SameSite: http.SameSiteLaxMode}, tokens.AccessTTL(), tokens.RefreshTTL()),
		AllowedOrigins: []string{"http://front.test"},
		Readiness:      map[string]Pinger{"redis": sessions},
		Log:            log,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testServer{
		router: NewRouter(deps),
		store:  store,
		mr:     mr,
		clock:  clock,
		tokens: tokens,
		google: google,
	}
}
