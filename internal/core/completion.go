package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	defaultChatModel   = "gpt-4o-mini"
	defaultTemperature = 0.2
	defaultMaxTokens   = 1500
)

// Turn is one message of a chat history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a single assistant reply. Implementations make exactly
// one upstream call and never retry.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []Turn, newMessage string) (string, error)
}

type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAICompleter builds a completer for any OpenAI compatible endpoint.
// An empty baseURL targets api.openai.com, an empty model uses gpt-4o-mini.
func NewOpenAICompleter(apiKey, baseURL, model string) *OpenAICompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = defaultChatModel
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt string, history []Turn, newMessage string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: newMessage})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", ErrCompletionTransport, apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", fmt.Errorf("%w: status %d: %v", ErrCompletionTransport, reqErr.HTTPStatusCode, reqErr.Err)
		}
		return "", fmt.Errorf("%w: %v", ErrCompletionTransport, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrMalformedCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
