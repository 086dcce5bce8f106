package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultFormatModel = "gpt-4o-mini"

	formatPrompt = "You write a short daily research digest for a product team. " +
		"Group findings by project, lead with the most urgent ones, keep user quotes verbatim " +
		"and list at most three source links per finding. Mention blog topics that are new. " +
		"Answer in plain text without markdown."
)

var errEmptyFormat = errors.New("formatter returned no choices")

// OpenAIFormatter asks a chat model to write the digest.
type OpenAIFormatter struct {
	client  *openai.Client
	model   string
	enabled bool
	mu      sync.Mutex
}

// NewOpenAIFormatter builds a formatter. An empty baseURL keeps the OpenAI default.
func NewOpenAIFormatter(apiKey, model, baseURL string) *OpenAIFormatter {
	if model == "" {
		model = DefaultFormatModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	f := &OpenAIFormatter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}

	log.Printf("openai formatter enabled: %v", apiKey != "")

	if apiKey != "" {
		f.enabled = true
	}

	return f
}

// Format returns an empty string when the formatter is disabled.
func (f *OpenAIFormatter) Format(ctx context.Context, d Digest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.enabled {
		return "", nil
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode digest: %w", err)
	}

	request := openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: formatPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		MaxTokens:   1500,
		Temperature: 0.3,
		TopP:        1,
	}

	resp, err := f.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyFormat
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
