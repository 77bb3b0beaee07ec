package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmarti/chatbridge/internal/domain/chatModel"
)

// ErrNotFound is returned by lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

func (s *Store) CreateUser(ctx context.Context, user chatModel.User) error {
	if strings.TrimSpace(user.Id) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)`,
		user.Id, strings.TrimSpace(user.Email), strings.TrimSpace(user.Name), toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (chatModel.User, error) {
	var user chatModel.User
	var createdAt int64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id)
	if err := row.Scan(&user.Id, &user.Email, &user.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chatModel.User{}, ErrNotFound
		}
		return chatModel.User{}, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}
