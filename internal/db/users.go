package db

import (
	"context"
	"time"

	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateUser inserts the user. The caller may pre-assign user.ID; a zero ID
// gets a fresh ObjectID. A user without any auth method is rejected.
func (m *Mongo) CreateUser(ctx context.Context, user *model.User) error {
	if !user.HasAuthMethod() {
		return ErrNoAuthMethod
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := m.users().InsertOne(ctx, user)
	return translate(err)
}

func (m *Mongo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m.findUser(ctx, bson.M{"_id": objectID})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *Mongo) GetUserByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return m.findUser(ctx, bson.M{"googleId": googleID})
}

// LinkGoogleAccount attaches a Google identity to an existing user. The
// picture is only written when the user has none. The password hash is left
// untouched.
func (m *Mongo) LinkGoogleAccount(ctx context.Context, id primitive.ObjectID, googleID, picture string) (*model.User, error) {
	set := bson.M{
		"googleId":  googleID,
		"updatedAt": time.Now().UTC(),
	}

	filter := bson.M{"_id": id}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.User
	if err := m.users().FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&user); err != nil {
		return nil, translate(err)
	}

	if picture != "" && user.ProfilePicture == "" {
		pictureFilter := bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"profilePicture": bson.M{"$exists": false}},
				bson.M{"profilePicture": ""},
			},
		}
		update := bson.M{"$set": bson.M{"profilePicture": picture}}
		if _, err := m.users().UpdateOne(ctx, pictureFilter, update); err != nil {
			return nil, translate(err)
		}
		user.ProfilePicture = picture
	}

	return &user, nil
}

func (m *Mongo) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := m.users().FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
