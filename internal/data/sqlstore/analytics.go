package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmarti/chatbridge/internal/domain/chatModel"
)

func (s *Store) RecordUsage(ctx context.Context, record chatModel.UsageRecord) error {
	if strings.TrimSpace(record.Id) == "" {
		return fmt.Errorf("usage record id is required")
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	degraded := 0
	if record.Degraded {
		degraded = 1
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO usage_records
		 (id, user_id, project_id, conversation_id, provider, model,
		  prompt_tokens, completion_tokens, latency_ms, degraded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Id, record.UserId, record.ProjectId, record.ConversationId,
		record.Provider, record.Model, record.PromptTokens, record.CompletionTokens,
		record.LatencyMs, degraded, toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// UsageSummary aggregates usage, optionally scoped to a project.
func (s *Store) UsageSummary(ctx context.Context, projectId string) (chatModel.UsageSummary, error) {
	summary := chatModel.UsageSummary{ByProvider: make(map[string]int64)}

	query := `SELECT COUNT(1),
	          COALESCE(SUM(prompt_tokens), 0),
	          COALESCE(SUM(completion_tokens), 0),
	          COALESCE(SUM(degraded), 0)
	          FROM usage_records`
	args := []any{}
	if projectId != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectId)
	}
	row := s.sqlDB.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&summary.Requests, &summary.PromptTokens,
		&summary.CompletionTokens, &summary.Degraded); err != nil {
		return summary, fmt.Errorf("usage totals: %w", err)
	}

	byProvider := `SELECT provider, COUNT(1) FROM usage_records`
	if projectId != "" {
		byProvider += ` WHERE project_id = ?`
	}
	byProvider += ` GROUP BY provider`
	rows, err := s.sqlDB.QueryContext(ctx, byProvider, args...)
	if err != nil {
		return summary, fmt.Errorf("usage by provider: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider string
		var count int64
		if err := rows.Scan(&provider, &count); err != nil {
			return summary, fmt.Errorf("scan usage row: %w", err)
		}
		summary.ByProvider[provider] = count
	}
	return summary, rows.Err()
}
