package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/utils"
)

const (
	defaultMetadataModelName = "gemini-1.5-flash-latest"

	metadataInputLimit     = 15000
	metadataTitleLimit     = 100
	metadataDescLimit      = 500
	conversationTitleLimit = 60
)

// DocumentMetadata is the suggested title and description for an uploaded document.
type DocumentMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MetadataGenerator suggests metadata for extracted document text.
type MetadataGenerator interface {
	GenerateDocumentMetadata(ctx context.Context, text, fileName string) (*DocumentMetadata, error)
}

// TitleGenerator names a conversation from its first exchange.
type TitleGenerator interface {
	GenerateConversationTitle(ctx context.Context, userMessage, assistantReply string) (string, error)
}

// LLMService talks to Gemini for the small side tasks: document metadata and conversation titles.
type LLMService struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

func NewLLMService(ctx context.Context, apiKey, model string, log *logger.Logger) (*LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = defaultMetadataModelName
	}
	return &LLMService{client: client, model: model, log: log}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.log.Warn("Error closing GenAI client", "error", err)
		} else {
			s.log.Info("GenAI client closed")
		}
	}
}

func (s *LLMService) GenerateDocumentMetadata(ctx context.Context, text, fileName string) (*DocumentMetadata, error) {
	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0.7)
	model.SetTopK(40)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(1024)
	model.ResponseMIMEType = "application/json"

	prompt := fmt.Sprintf(documentMetadataPrompt, fileName, utils.TruncateRunes(text, metadataInputLimit))
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini metadata request failed: %w", err)
	}

	raw := responseText(resp)
	if raw == "" {
		return nil, fmt.Errorf("gemini returned no metadata content")
	}
	return ParseDocumentMetadata(raw, text, fileName), nil
}

func (s *LLMService) GenerateConversationTitle(ctx context.Context, userMessage, assistantReply string) (string, error) {
	model := s.client.GenerativeModel(s.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(conversationTitleInstruction)},
	}
	model.SetTemperature(0.3)
	model.SetMaxOutputTokens(20)

	prompt := fmt.Sprintf("User: %s\nAI: %s", userMessage, assistantReply)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini title generation request failed: %w", err)
	}

	title := utils.CleanTitle(responseText(resp))
	if title == "" {
		return "", fmt.Errorf("LLM generated an empty title string")
	}
	return utils.TruncateRunes(title, conversationTitleLimit), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// ParseDocumentMetadata reads the model's JSON answer and fills anything
// missing from the file name and the document text.
func ParseDocumentMetadata(raw, text, fileName string) *DocumentMetadata {
	var meta DocumentMetadata
	if obj, ok := utils.ExtractJSONObject(raw); ok {
		_ = json.Unmarshal([]byte(obj), &meta)
	}
	fallback := FallbackDocumentMetadata(text, fileName)
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = fallback.Title
	}
	if strings.TrimSpace(meta.Description) == "" {
		meta.Description = fallback.Description
	}
	meta.Title = utils.TruncateRunes(strings.TrimSpace(meta.Title), metadataTitleLimit)
	meta.Description = utils.TruncateRunes(strings.TrimSpace(meta.Description), metadataDescLimit)
	return &meta
}

// FallbackDocumentMetadata is used when no model is configured or the model fails.
func FallbackDocumentMetadata(text, fileName string) *DocumentMetadata {
	return &DocumentMetadata{
		Title:       utils.TruncateRunes(utils.StripExtension(fileName), metadataTitleLimit),
		Description: utils.TruncateRunes(strings.TrimSpace(text), metadataDescLimit),
	}
}
