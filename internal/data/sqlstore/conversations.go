package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmarti/chatbridge/internal/config"
	"github.com/dmarti/chatbridge/internal/domain/chatModel"
)

func (s *Store) CreateConversation(ctx context.Context, conversation chatModel.Conversation) error {
	if strings.TrimSpace(conversation.Id) == "" {
		return fmt.Errorf("conversation id is required")
	}
	now := time.Now().UTC()
	createdAt := conversation.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := conversation.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	title := strings.TrimSpace(conversation.Title)
	if title == "" {
		title = "New conversation"
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO conversations (id, project_id, user_id, title, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		conversation.Id, conversation.ProjectId, conversation.UserId, title,
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (chatModel.Conversation, error) {
	var conversation chatModel.Conversation
	var createdAt, updatedAt int64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, project_id, user_id, title, created_at, updated_at FROM conversations WHERE id = ?`, id)
	if err := row.Scan(&conversation.Id, &conversation.ProjectId, &conversation.UserId,
		&conversation.Title, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chatModel.Conversation{}, ErrNotFound
		}
		return chatModel.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	conversation.CreatedAt = fromMillis(createdAt)
	conversation.UpdatedAt = fromMillis(updatedAt)
	return conversation, nil
}

// ListConversations pages newest-first, optionally scoped to one project.
func (s *Store) ListConversations(ctx context.Context, projectId string, limit, offset int) ([]chatModel.Conversation, error) {
	limit, offset = clampPage(limit, offset, config.DefaultPageSize, config.MaxPageSize)

	query := `SELECT id, project_id, user_id, title, created_at, updated_at
	          FROM conversations`
	args := []any{}
	if projectId != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectId)
	}
	query += ` ORDER BY updated_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []chatModel.Conversation
	for rows.Next() {
		var conversation chatModel.Conversation
		var createdAt, updatedAt int64
		if err := rows.Scan(&conversation.Id, &conversation.ProjectId, &conversation.UserId,
			&conversation.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversation.CreatedAt = fromMillis(createdAt)
		conversation.UpdatedAt = fromMillis(updatedAt)
		conversations = append(conversations, conversation)
	}
	return conversations, rows.Err()
}

func (s *Store) RenameConversation(ctx context.Context, id string, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, toMillis(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("rename conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes the conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete conversation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *Store) SaveMessage(ctx context.Context, message chatModel.Message) error {
	if strings.TrimSpace(message.Id) == "" {
		return fmt.Errorf("message id is required")
	}
	if strings.TrimSpace(message.ConversationId) == "" {
		return fmt.Errorf("conversation id is required")
	}
	createdAt := message.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save message: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, provider, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.Id, message.ConversationId, string(message.Role), message.Content,
		message.Provider, message.Model, toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	// keep conversation ordering fresh for the list endpoint
	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		toMillis(createdAt), message.ConversationId,
	); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return tx.Commit()
}

func (s *Store) ListMessages(ctx context.Context, conversationId string, limit, offset int) ([]chatModel.Message, error) {
	limit, offset = clampPage(limit, offset, config.DefaultPageSize, config.MaxPageSize)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, provider, model, created_at
		 FROM messages WHERE conversation_id = ?
		 ORDER BY created_at ASC LIMIT ? OFFSET ?`,
		conversationId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []chatModel.Message
	for rows.Next() {
		var message chatModel.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&message.Id, &message.ConversationId, &role, &message.Content,
			&message.Provider, &message.Model, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		message.Role = chatModel.MessageRole(role)
		message.CreatedAt = fromMillis(createdAt)
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
