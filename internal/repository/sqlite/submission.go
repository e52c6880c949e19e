package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

var _ repository.SubmissionRepository = (*SubmissionDB)(nil)

// SubmissionDB stores submissions. Rows are only ever inserted; they go
// away when their form is deleted.
type SubmissionDB struct {
	conn *sql.DB
}

func (db *SubmissionDB) Create(ctx context.Context, sub *model.Submission) error {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("sqlite: encoding submission data: %w", err)
	}
	sub.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO submissions (form_id, data, created_at) VALUES (?, ?, ?)`,
		sub.FormID, string(data), sub.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return apperror.NotFound("form", fmt.Sprint(sub.FormID))
		}
		return fmt.Errorf("sqlite: creating submission: %w", err)
	}
	sub.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading submission id: %w", err)
	}
	return nil
}

// ListByForm returns the newest submissions first.
func (db *SubmissionDB) ListByForm(ctx context.Context, formID int64, opts repository.ListOptions) ([]model.Submission, error) {
	limit, offset := clampPage(opts)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, form_id, data, created_at FROM submissions
		 WHERE form_id = ?
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		formID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]model.Submission, 0, limit)
	for rows.Next() {
		var (
			s    model.Submission
			data string
		)
		if err := rows.Scan(&s.ID, &s.FormID, &data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
			return nil, fmt.Errorf("sqlite: decoding submission %d: %w", s.ID, err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submissions: %w", err)
	}
	return subs, nil
}

func (db *SubmissionDB) CountByForm(ctx context.Context, formID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_id = ?`, formID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting submissions: %w", err)
	}
	return n, nil
}
