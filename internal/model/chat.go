package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultChatTitle = "New Chat"

type ChatMessage struct {
	Role      string         `bson:"role" json:"role"`
	Content   string         `bson:"content" json:"content"`
	Timestamp *time.Time     `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
	Metadata  map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

type Chat struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ChatID      string             `bson:"chatId" json:"chatId"`
	UserID      string             `bson:"userId" json:"-"`
	Title       string             `bson:"title" json:"title"`
	Messages    []ChatMessage      `bson:"messages" json:"messages,omitempty"`
	LastUpdated time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type SaveChatRequest struct {
	ChatID   string        `json:"chatId"`
	Title    string        `json:"title"`
	Messages []ChatMessage `json:"messages"`
}

type UpdateChatRequest struct {
	Title             string        `json:"title"`
	Messages          []ChatMessage `json:"messages"`
	PreserveTimestamp bool          `json:"preserveTimestamp"`
}

// ChatSummary is a history entry; messages are not included.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastUpdated  time.Time `json:"lastUpdated"`
	MessageCount int       `json:"messageCount"`
}

type ChatCategories struct {
	Today     []ChatSummary `json:"today"`
	Yesterday []ChatSummary `json:"yesterday"`
	LastWeek  []ChatSummary `json:"lastWeek"`
	LastMonth []ChatSummary `json:"lastMonth"`
	Older     []ChatSummary `json:"older"`
}

type ChatView struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chatId"`
	Title       string        `json:"title"`
	Messages    []ChatMessage `json:"messages"`
	LastUpdated time.Time     `json:"lastUpdated"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func NewChatView(chat *Chat) ChatView {
	messages := chat.Messages
	if messages == nil {
		messages = []ChatMessage{}
	}
	return ChatView{
		ID:          chat.ChatID,
		ChatID:      chat.ChatID,
		Title:       chat.Title,
		Messages:    messages,
		LastUpdated: chat.LastUpdated,
		CreatedAt:   chat.CreatedAt,
	}
}

type ChatResponse struct {
	Success bool     `json:"success"`
	Chat    ChatView `json:"chat"`
}

type ChatHistoryResponse struct {
	Success    bool           `json:"success"`
	Categories ChatCategories `json:"categories"`
}

// AIRequest carries the conversation used for title or summary generation.
type AIRequest struct {
	Messages []ChatMessage `json:"messages"`
}

type TitleResponse struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
}

type SummaryResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
}
