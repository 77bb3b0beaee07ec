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

func (s *Store) CreateFile(ctx context.Context, file chatModel.FileAttachment) error {
	if strings.TrimSpace(file.Id) == "" {
		return fmt.Errorf("file id is required")
	}
	uploadedAt := file.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO files (id, project_id, name, kind, text, size_bytes, uploaded_at, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		file.Id, file.ProjectId, file.Name, string(file.Kind), file.Text, file.SizeBytes, toMillis(uploadedAt),
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// SetFileText records the extraction output once the worker is done with it.
func (s *Store) SetFileText(ctx context.Context, id string, kind chatModel.FileKind, text string) error {
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE files SET kind = ?, text = ?, extracted_at = ? WHERE id = ?`,
		string(kind), text, toMillis(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set file text: %w", err)
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

func (s *Store) GetFile(ctx context.Context, id string) (chatModel.FileAttachment, error) {
	var file chatModel.FileAttachment
	var kind string
	var uploadedAt int64
	var extractedAt sql.NullInt64
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, project_id, name, kind, text, size_bytes, uploaded_at, extracted_at
		 FROM files WHERE id = ?`, id)
	if err := row.Scan(&file.Id, &file.ProjectId, &file.Name, &kind, &file.Text,
		&file.SizeBytes, &uploadedAt, &extractedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chatModel.FileAttachment{}, ErrNotFound
		}
		return chatModel.FileAttachment{}, fmt.Errorf("get file: %w", err)
	}
	file.Kind = chatModel.FileKind(kind)
	file.UploadedAt = fromMillis(uploadedAt)
	if extractedAt.Valid {
		file.ExtractedAt = fromMillis(extractedAt.Int64)
	}
	return file, nil
}
