package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vaanipro/backend/internal/model"
)

const maxTitleRunes = 50

var (
	ErrAIUnavailable    = errors.New("ai generation is not configured")
	ErrNoMessages       = errors.New("messages array is required and must not be empty")
	ErrGenerationFailed = errors.New("ai generation failed")
)

// TextGenerator turns a prompt into a single text completion.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type AIService struct {
	generator TextGenerator
	log       logrus.FieldLogger
}

// NewAIService accepts a nil generator; every call then fails with
// ErrAIUnavailable.
func NewAIService(generator TextGenerator, log logrus.FieldLogger) *AIService {
	return &AIService{generator: generator, log: log.WithField("component", "ai")}
}

func (s *AIService) GenerateTitle(ctx context.Context, messages []model.ChatMessage) (string, error) {
	prompt := "Generate a brief, engaging title (max 5 words) for this conversation:\n\n" + formatConversation(messages)
	title, err := s.generate(ctx, messages, prompt)
	if err != nil {
		return "", err
	}
	title = strings.Trim(strings.TrimSpace(title), `"`)
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes])
	}
	return title, nil
}

func (s *AIService) GenerateSummary(ctx context.Context, messages []model.ChatMessage) (string, error) {
	prompt := "Please summarize this conversation in 2-3 sentences:\n\n" + formatConversation(messages)
	return s.generate(ctx, messages, prompt)
}

func (s *AIService) generate(ctx context.Context, messages []model.ChatMessage, prompt string) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	if s.generator == nil {
		return "", ErrAIUnavailable
	}
	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		s.log.WithError(err).Error("text generation failed")
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return text, nil
}

func formatConversation(messages []model.ChatMessage) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		speaker := "Assistant"
		if msg.Role == "user" {
			speaker = "User"
		}
		lines = append(lines, speaker+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}
