package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
	"github.com/coursetutor/tutor-backend/internal/utils"
)

const (
	DefaultConversationTitle = "New Conversation"
	DefaultHistoryLimit      = 8

	titleTimeout = 30 * time.Second
)

// ChatRequest is a stateless tutoring request: the whole visible history plus
// an optional module to ground the answer in.
type ChatRequest struct {
	Messages []Turn `json:"messages"`
	ModuleID string `json:"moduleId"`
}

type ChatReply struct {
	Response         string   `json:"response"`
	ToolsUsed        []string `json:"toolsUsed"`
	HasModuleContent bool     `json:"hasModuleContent"`
}

// ConversationDetails is a conversation with its messages in chronological order.
type ConversationDetails struct {
	Conversation *store.Conversation `json:"conversation"`
	Messages     []store.Message     `json:"messages"`
}

type ChatService struct {
	dbStore      *store.SQLStore
	aggregator   *ContentAggregator
	settings     *SettingsService
	completer    Completer
	titles       TitleGenerator // optional
	historyLimit int
	log          *logger.Logger

	titleJobs sync.WaitGroup
}

func NewChatService(db *store.SQLStore, aggregator *ContentAggregator, settings *SettingsService, completer Completer, titles TitleGenerator, historyLimit int, log *logger.Logger) *ChatService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{
		dbStore:      db,
		aggregator:   aggregator,
		settings:     settings,
		completer:    completer,
		titles:       titles,
		historyLimit: historyLimit,
		log:          log,
	}
}

// Respond runs the tutoring pipeline: resolve the module, aggregate its
// content, compose the system prompt and make one completion call. A module
// named in the request must be visible to user; the global active module is
// used as is.
func (s *ChatService) Respond(ctx context.Context, user *store.User, req ChatRequest) (*ChatReply, error) {
	turns, err := validateTurns(req.Messages)
	if err != nil {
		return nil, err
	}

	moduleID := strings.TrimSpace(req.ModuleID)
	if moduleID != "" {
		if _, err := s.visibleModule(ctx, user, moduleID); err != nil {
			return nil, err
		}
	} else {
		moduleID, err = s.settings.ActiveModuleID(ctx)
		if err != nil {
			return nil, err
		}
	}

	var moduleContext string
	hasContent := false
	if moduleID != "" {
		moduleContext, hasContent, err = s.aggregator.GetModuleContext(ctx, moduleID)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate module content: %w", err)
		}
		if !hasContent && asksForOverview(turns) {
			last := &turns[len(turns)-1]
			last.Content += MissingMaterialsNote
		}
	}

	override, err := s.settings.SystemPromptOverride(ctx)
	if err != nil {
		return nil, err
	}
	systemPrompt := BuildSystemPrompt(PromptInput{Override: override, ModuleContext: moduleContext})

	history := turns[:len(turns)-1]
	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}

	s.log.Debug("Requesting chat completion",
		"module_id", moduleID, "has_module_content", hasContent, "history", len(history), "custom_prompt", strings.TrimSpace(override) != "")
	text, err := s.completer.Complete(ctx, systemPrompt, history, turns[len(turns)-1].Content)
	if err != nil {
		return nil, err
	}

	return &ChatReply{Response: text, ToolsUsed: []string{}, HasModuleContent: hasContent}, nil
}

// validateTurns copies the history so callers never see the appended notes.
func validateTurns(messages []Turn) ([]Turn, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages must be a non-empty array", ErrInvalidInput)
	}
	turns := make([]Turn, len(messages))
	for i, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			return nil, fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, m.Role)
		}
		turns[i] = m
	}
	last := turns[len(turns)-1]
	if last.Role != RoleUser || strings.TrimSpace(last.Content) == "" {
		return nil, fmt.Errorf("%w: the last message must be a non-empty user message", ErrInvalidInput)
	}
	return turns, nil
}

func asksForOverview(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleUser && utils.IsCourseOverviewQuestion(t.Content) {
			return true
		}
	}
	return false
}

// visibleModule returns ErrNotFound for modules user may not see, so private
// modules of other users look the same as missing ones.
func (s *ChatService) visibleModule(ctx context.Context, user *store.User, moduleID string) (*store.Module, error) {
	module, err := s.dbStore.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify module: %w", err)
	}
	if module == nil || !canView(user, module) {
		return nil, ErrNotFound
	}
	return module, nil
}

func (s *ChatService) CreateConversation(ctx context.Context, user *store.User, moduleID *string, title string) (*store.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}
	if moduleID != nil {
		if _, err := s.visibleModule(ctx, user, *moduleID); err != nil {
			return nil, err
		}
	}
	conv, err := s.dbStore.CreateConversation(ctx, user.ID, moduleID, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation in DB: %w", err)
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]store.Conversation, error) {
	return s.dbStore.GetConversationsByUserID(ctx, userID)
}

func (s *ChatService) GetConversation(ctx context.Context, conversationID, userID string, limit, offset int) (*ConversationDetails, error) {
	conv, err := s.dbStore.GetConversationByID(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}
	messages, err := s.dbStore.GetMessagesByConversationID(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for conversation: %w", err)
	}
	return &ConversationDetails{Conversation: conv, Messages: messages}, nil
}

func (s *ChatService) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	err := s.dbStore.DeleteConversation(ctx, conversationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// PostMessage stores the user's message, answers it with the conversation's
// recent history and stores the reply. The first exchange of a conversation
// still carrying the default title triggers a background title generation.
func (s *ChatService) PostMessage(ctx context.Context, user *store.User, conversationID, content string, questionContext *string) (*store.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", ErrInvalidInput)
	}
	userID := user.ID

	conv, err := s.dbStore.GetConversationByID(ctx, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrNotFound
	}

	prior, err := s.dbStore.GetLastNMessages(ctx, conversationID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	userMsg := store.Message{
		ConversationID:  conversationID,
		IsUser:          true,
		Content:         content,
		QuestionContext: questionContext,
	}
	if err := s.dbStore.CreateMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	firstExchange := true
	turns := make([]Turn, 0, len(prior)+1)
	for _, m := range prior {
		role := RoleAssistant
		if m.IsUser {
			role = RoleUser
		} else {
			firstExchange = false
		}
		turns = append(turns, Turn{Role: role, Content: m.Content})
	}
	turns = append(turns, Turn{Role: RoleUser, Content: content})

	req := ChatRequest{Messages: turns}
	if conv.ModuleID != nil {
		req.ModuleID = *conv.ModuleID
	}
	reply, err := s.Respond(ctx, user, req)
	if err != nil {
		s.log.Error("Error generating reply", "conversation_id", conversationID, "error", err)
		return nil, err
	}

	askedAbout := content
	if questionContext != nil && *questionContext != "" {
		askedAbout = *questionContext
	}
	assistantMsg := store.Message{
		ConversationID:  conversationID,
		IsUser:          false,
		Content:         reply.Response,
		ToolsUsed:       reply.ToolsUsed,
		QuestionContext: &askedAbout,
	}
	if err := s.dbStore.CreateMessage(ctx, &assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	if err := s.dbStore.TouchConversation(ctx, conversationID, assistantMsg.CreatedAt); err != nil {
		s.log.Warn("Failed to update conversation activity", "conversation_id", conversationID, "error", err)
	}

	if firstExchange && s.titles != nil && conv.Title == DefaultConversationTitle {
		s.titleJobs.Add(1)
		go s.generateAndSaveTitle(conversationID, userID, content, reply.Response)
	}

	return &assistantMsg, nil
}

func (s *ChatService) generateAndSaveTitle(conversationID, userID, userMessage, reply string) {
	defer s.titleJobs.Done()

	ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
	defer cancel()

	title, err := s.titles.GenerateConversationTitle(ctx, userMessage, reply)
	if err != nil {
		s.log.Warn("Failed to generate conversation title", "conversation_id", conversationID, "error", err)
		return
	}
	if err := s.dbStore.UpdateConversationTitle(ctx, conversationID, userID, title); err != nil {
		s.log.Warn("Failed to save generated title", "conversation_id", conversationID, "title", title, "error", err)
		return
	}
	s.log.Info("Saved generated conversation title", "conversation_id", conversationID, "title", title)
}

// Wait blocks until background title jobs have finished.
func (s *ChatService) Wait() {
	s.titleJobs.Wait()
}
