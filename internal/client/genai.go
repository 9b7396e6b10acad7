package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vaanipro/backend/internal/config"
	"google.golang.org/genai"
)

var ErrEmptyGeneration = errors.New("empty generation result")

// GenAIClient produces short text completions with Gemini.
type GenAIClient struct {
	client *genai.Client
	model  string
}

func NewGenAIClient(ctx context.Context, cfg config.GeminiConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GenAIClient{client: client, model: cfg.Model}, nil
}

func (c *GenAIClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil || res.Candidates[0].Content == nil {
		return "", ErrEmptyGeneration
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyGeneration
	}
	return text, nil
}
