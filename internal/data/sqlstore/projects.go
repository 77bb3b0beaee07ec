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

func (s *Store) CreateProject(ctx context.Context, project chatModel.Project) error {
	if strings.TrimSpace(project.Id) == "" {
		return fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	createdAt := project.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO projects (id, owner_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		project.Id, project.OwnerId, strings.TrimSpace(project.Name), project.Description, toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id string) (chatModel.Project, error) {
	var project chatModel.Project
	var createdAt int64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, owner_id, name, description, created_at FROM projects WHERE id = ?`, id)
	if err := row.Scan(&project.Id, &project.OwnerId, &project.Name, &project.Description, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chatModel.Project{}, ErrNotFound
		}
		return chatModel.Project{}, fmt.Errorf("get project: %w", err)
	}
	project.CreatedAt = fromMillis(createdAt)
	return project, nil
}

func (s *Store) ListProjects(ctx context.Context, limit, offset int) ([]chatModel.Project, error) {
	limit, offset = clampPage(limit, offset, config.DefaultPageSize, config.MaxPageSize)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, owner_id, name, description, created_at
		 FROM projects ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []chatModel.Project
	for rows.Next() {
		var project chatModel.Project
		var createdAt int64
		if err := rows.Scan(&project.Id, &project.OwnerId, &project.Name, &project.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.CreatedAt = fromMillis(createdAt)
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
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
