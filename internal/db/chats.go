package db

import (
	"context"
	"time"

	"github.com/vaanipro/backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *Mongo) CreateChat(ctx context.Context, chat *model.Chat) error {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	_, err := m.chats().InsertOne(ctx, chat)
	return translate(err)
}

func (m *Mongo) GetChat(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	var chat model.Chat
	err := m.chats().FindOne(ctx, bson.M{"userId": userID, "chatId": chatID}).Decode(&chat)
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

// UpdateChat replaces title and messages. A nil lastUpdated keeps the stored
// timestamp.
func (m *Mongo) UpdateChat(ctx context.Context, userID, chatID, title string, messages []model.ChatMessage, lastUpdated *time.Time) (*model.Chat, error) {
	set := bson.M{
		"title":    title,
		"messages": messages,
	}
	if lastUpdated != nil {
		set["lastUpdated"] = *lastUpdated
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var chat model.Chat
	err := m.chats().FindOneAndUpdate(ctx, bson.M{"userId": userID, "chatId": chatID}, bson.M{"$set": set}, opts).Decode(&chat)
	if err != nil {
		return nil, translate(err)
	}
	return &chat, nil
}

func (m *Mongo) DeleteChat(ctx context.Context, userID, chatID string) error {
	res, err := m.chats().DeleteOne(ctx, bson.M{"userId": userID, "chatId": chatID})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChats returns the user's chats, newest first, without messages.
func (m *Mongo) ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error) {
	pipeline := bson.A{
		bson.M{"$match": bson.M{"userId": userID}},
		bson.M{"$sort": bson.D{{Key: "lastUpdated", Value: -1}}},
		bson.M{"$project": bson.M{
			"chatId":       1,
			"title":        1,
			"lastUpdated":  1,
			"messageCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$messages", bson.A{}}}},
		}},
	}

	cursor, err := m.chats().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ChatID       string    `bson:"chatId"`
		Title        string    `bson:"title"`
		LastUpdated  time.Time `bson:"lastUpdated"`
		MessageCount int       `bson:"messageCount"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	summaries := make([]model.ChatSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, model.ChatSummary{
			ID:           row.ChatID,
			Title:        row.Title,
			LastUpdated:  row.LastUpdated,
			MessageCount: row.MessageCount,
		})
	}
	return summaries, nil
}
