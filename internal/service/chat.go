package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/db"
	"github.com/vaanipro/backend/internal/model"
)

var (
	ErrInvalidChatRequest = errors.New("invalid chat request")
	ErrChatNotFound       = errors.New("chat not found")
)

// Client-side placeholder ids that must be replaced on first save.
var placeholderChatPrefixes = []string{"temp_", "new_"}

// ChatRepository stores chats scoped by owner.
type ChatRepository interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	GetChat(ctx context.Context, userID, chatID string) (*model.Chat, error)
	UpdateChat(ctx context.Context, userID, chatID, title string, messages []model.ChatMessage, lastUpdated *time.Time) (*model.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID string) error
	ListChats(ctx context.Context, userID string) ([]model.ChatSummary, error)
}

type ChatService struct {
	repo ChatRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewChatService(repo ChatRepository, log logrus.FieldLogger) *ChatService {
	return &ChatService{
		repo: repo,
		log:  log.WithField("component", "chat"),
		now:  time.Now,
	}
}

// Save stores the conversation for userID. Unknown or placeholder chat ids
// create a new chat; an id the user already owns is overwritten.
func (s *ChatService) Save(ctx context.Context, userID string, req model.SaveChatRequest) (*model.Chat, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrInvalidChatRequest)
	}
	title := chatTitle(req.Title)
	now := s.now().UTC()

	chatID := strings.TrimSpace(req.ChatID)
	if isPlaceholderChatID(chatID) {
		chatID = uuid.NewString()
	} else {
		chat, err := s.repo.UpdateChat(ctx, userID, chatID, title, req.Messages, &now)
		if err == nil {
			return chat, nil
		}
		if !db.IsNotFound(err) {
			return nil, err
		}
	}

	chat := &model.Chat{
		ChatID:      chatID,
		UserID:      userID,
		Title:       title,
		Messages:    req.Messages,
		LastUpdated: now,
		CreatedAt:   now,
	}
	if err := s.repo.CreateChat(ctx, chat); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%w: chat id already in use", ErrInvalidChatRequest)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "chat_id": chatID}).Debug("chat created")
	return chat, nil
}

func (s *ChatService) Update(ctx context.Context, userID, chatID string, req model.UpdateChatRequest) (*model.Chat, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrInvalidChatRequest)
	}

	var lastUpdated *time.Time
	if !req.PreserveTimestamp {
		now := s.now().UTC()
		lastUpdated = &now
	}

	chat, err := s.repo.UpdateChat(ctx, userID, chatID, chatTitle(req.Title), req.Messages, lastUpdated)
	if err != nil {
		return nil, chatError(err)
	}
	return chat, nil
}

func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	chat, err := s.repo.GetChat(ctx, userID, chatID)
	if err != nil {
		return nil, chatError(err)
	}
	return chat, nil
}

func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	return chatError(s.repo.DeleteChat(ctx, userID, chatID))
}

// History groups the user's chats by how recently they were updated.
func (s *ChatService) History(ctx context.Context, userID string) (model.ChatCategories, error) {
	summaries, err := s.repo.ListChats(ctx, userID)
	if err != nil {
		return model.ChatCategories{}, err
	}
	return categorize(summaries, s.now()), nil
}

func categorize(summaries []model.ChatSummary, now time.Time) model.ChatCategories {
	categories := model.ChatCategories{
		Today:     []model.ChatSummary{},
		Yesterday: []model.ChatSummary{},
		LastWeek:  []model.ChatSummary{},
		LastMonth: []model.ChatSummary{},
		Older:     []model.ChatSummary{},
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	lastWeek := today.AddDate(0, 0, -7)
	lastMonth := today.AddDate(0, 0, -30)

	for _, summary := range summaries {
		updated := summary.LastUpdated.In(now.Location())
		switch {
		case !updated.Before(today):
			categories.Today = append(categories.Today, summary)
		case !updated.Before(yesterday):
			categories.Yesterday = append(categories.Yesterday, summary)
		case !updated.Before(lastWeek):
			categories.LastWeek = append(categories.LastWeek, summary)
		case !updated.Before(lastMonth):
			categories.LastMonth = append(categories.LastMonth, summary)
		default:
			categories.Older = append(categories.Older, summary)
		}
	}
	return categories
}

func isPlaceholderChatID(chatID string) bool {
	if chatID == "" {
		return true
	}
	for _, prefix := range placeholderChatPrefixes {
		if strings.HasPrefix(chatID, prefix) {
			return true
		}
	}
	return false
}

func chatTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.DefaultChatTitle
	}
	return title
}

func chatError(err error) error {
	if db.IsNotFound(err) {
		return ErrChatNotFound
	}
	return err
}
