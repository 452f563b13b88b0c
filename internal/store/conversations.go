package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversation methods
func (s *SQLStore) CreateConversation(ctx context.Context, userID string, moduleID *string, title string) (*Conversation, error) {
	ts := now()
	conv := &Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		ModuleID:     moduleID,
		Title:        title,
		LastActivity: ts,
		CreatedAt:    ts,
	}
	_, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO conversations (id, user_id, module_id, title, last_activity, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		conv.ID, conv.UserID, conv.ModuleID, conv.Title, conv.LastActivity, conv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute conversation insert: %w", err)
	}
	return conv, nil
}

func scanConversation(row interface{ Scan(...any) error }) (*Conversation, error) {
	var conv Conversation
	var moduleID sql.NullString
	if err := row.Scan(&conv.ID, &conv.UserID, &moduleID, &conv.Title, &conv.LastActivity, &conv.CreatedAt); err != nil {
		return nil, err
	}
	conv.ModuleID = nullableString(moduleID)
	return &conv, nil
}

// GetConversationByID returns nil, nil when the conversation does not exist or belongs to someone else.
func (s *SQLStore) GetConversationByID(ctx context.Context, conversationID, userID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT id, user_id, module_id, title, last_activity, created_at FROM conversations WHERE id = ? AND user_id = ?"), conversationID, userID)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLStore) GetConversationsByUserID(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT id, user_id, module_id, title, last_activity, created_at FROM conversations WHERE user_id = ? ORDER BY last_activity DESC"), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := []Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

func (s *SQLStore) UpdateConversationTitle(ctx context.Context, conversationID, userID, title string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("UPDATE conversations SET title = ? WHERE id = ? AND user_id = ?"), title, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute conversation title update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind("UPDATE conversations SET last_activity = ? WHERE id = ?"), at.UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to update conversation activity: %w", err)
	}
	return nil
}

// DeleteConversation removes the conversation and its messages in one transaction.
func (s *SQLStore) DeleteConversation(ctx context.Context, conversationID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin conversation delete: %w", err)
	}
	defer tx.Rollback()

	var owned int
	if err := tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM conversations WHERE id = ? AND user_id = ?"), conversationID, userID).Scan(&owned); err != nil {
		return fmt.Errorf("failed to verify conversation owner: %w", err)
	}
	if owned == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM messages WHERE conversation_id = ?"), conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM conversations WHERE id = ?"), conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return tx.Commit()
}

// Message methods
func (s *SQLStore) CreateMessage(ctx context.Context, msg *Message) error {
	msg.ID = uuid.NewString() // Ensure ID is set
	msg.CreatedAt = now()
	if msg.ToolsUsed == nil {
		msg.ToolsUsed = []string{}
	}

	toolsJSON, err := encodeStrings(msg.ToolsUsed)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind("INSERT INTO messages (id, conversation_id, is_user, content, tools_used, question_context, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		msg.ID, msg.ConversationID, msg.IsUser, msg.Content, toolsJSON, msg.QuestionContext, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

func (s *SQLStore) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var msg Message
		var tools, questionContext sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.IsUser, &msg.Content, &tools, &questionContext, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.ToolsUsed = decodeStrings(tools)
		msg.QuestionContext = nullableString(questionContext)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLStore) GetMessagesByConversationID(ctx context.Context, conversationID string, limit, offset int) ([]Message, error) {
	return s.queryMessages(ctx, `
        SELECT id, conversation_id, is_user, content, tools_used, question_context, created_at
        FROM messages WHERE conversation_id = ? ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		conversationID, limit, offset)
}

// GetLastNMessages returns the newest n messages in chronological order.
func (s *SQLStore) GetLastNMessages(ctx context.Context, conversationID string, n int) ([]Message, error) {
	messages, err := s.queryMessages(ctx, `
        SELECT id, conversation_id, is_user, content, tools_used, question_context, created_at
        FROM messages WHERE conversation_id = ? ORDER BY created_at DESC LIMIT ?`,
		conversationID, n)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *SQLStore) CountMessages(ctx context.Context, conversationID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM messages WHERE conversation_id = ?"), conversationID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
