// Package research queries an OpenAI-compatible chat completions API that
// answers with web citations.
package research

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar"

	defaultTimeout = 60 * time.Second
	systemPrompt   = "You are a market research assistant. Answer with sections titled " +
		"Key Findings, Most Important Insight, Pain Points, Solution Requests, Action Items and Priority. " +
		"Quote users verbatim where possible, name the community each quote comes from, " +
		"and rate the priority as low, medium, high or urgent."
)

var ErrMissingAPIKey = errors.New("research: api key is not configured")

// APIError is returned when the upstream answers with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("research api returned status %d: %s", e.StatusCode, e.Message)
}

// Response is the raw answer for one query.
type Response struct {
	Content   string
	Citations []string
}

type Client struct {
	client  *openai.Client
	model   string
	enabled bool
	retries int
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL   string
	model     string
	transport http.RoundTripper
	timeout   time.Duration
}

func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		if url != "" {
			o.baseURL = url
		}
	}
}

func WithModel(model string) Option {
	return func(o *clientOptions) {
		if model != "" {
			o.model = model
		}
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	o := clientOptions{
		baseURL:   DefaultBaseURL,
		model:     DefaultModel,
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	cfg.HTTPClient = &http.Client{
		Timeout:   o.timeout,
		Transport: &citationTransport{next: o.transport},
	}

	log.Printf("research client enabled: %v", apiKey != "")

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		model:   o.model,
		enabled: apiKey != "",
		retries: 1,
	}
}

// Query asks one research question. A failed attempt is retried once.
func (c *Client) Query(ctx context.Context, question string) (Response, error) {
	if !c.enabled {
		return Response{}, ErrMissingAPIKey
	}

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		var resp Response
		resp, err = c.query(ctx, question)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		if attempt < c.retries {
			log.Printf("[WARN] research query failed, retrying: %v", err)
		}
	}

	return Response{}, err
}

func (c *Client) query(ctx context.Context, question string) (Response, error) {
	sink := &citationSink{}
	ctx = withCitationSink(ctx, sink)

	request := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0.2,
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return Response{}, convertError(err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, &APIError{StatusCode: http.StatusOK, Message: "response has no choices"}
	}

	return Response{
		Content:   strings.TrimSpace(resp.Choices[0].Message.Content),
		Citations: sink.get(),
	}, nil
}

func convertError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}

	return fmt.Errorf("research request: %w", err)
}
