package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/vaanipro/backend/internal/cache"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/logging"
	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeUserRepo enforces the same uniqueness rules as the Mongo indexes.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[primitive.ObjectID]*model.User
	failErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[primitive.ObjectID]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	for _, existing := range f.byID {
		if existing.Email == user.Email || (user.GoogleID != "" && existing.GoogleID == user.GoogleID) {
			return db.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, db.ErrNotFound
	}
	return f.find(func(u *model.User) bool { return u.ID == objectID })
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return f.find(func(u *model.User) bool { return u.GoogleID == googleID })
}

func (f *fakeUserRepo) LinkGoogleAccount(ctx context.Context, id primitive.ObjectID, googleID, picture string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	user.GoogleID = googleID
	if user.ProfilePicture == "" && picture != "" {
		user.ProfilePicture = picture
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) find(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	for _, user := range f.byID {
		if match(user) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func newTestCache(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return cache.NewStore(rc, logging.Discard()), mr
}

// newDeadCache returns a store whose backend is already gone.
func newDeadCache(t *testing.T) *cache.Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rc.Close() })
	mr.Close()
	return cache.NewStore(rc, logging.Discard())
}
