package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

var _ repository.FormRepository = (*FormDB)(nil)

// FormDB stores forms. The field list is kept as a JSON column.
type FormDB struct {
	conn *sql.DB
}

const formColumns = `id, user_id, share_id, title, slug, slug_pinned, fields,
	whatsapp_number, google_sheet_id, google_sheet_name, connected_account_id,
	submit_button_text, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (*model.Form, error) {
	var (
		f          model.Form
		fieldsJSON string
		wa, sid    sql.NullString
		sname, btn sql.NullString
		acct       sql.NullInt64
	)
	err := row.Scan(&f.ID, &f.UserID, &f.ShareID, &f.Title, &f.Slug, &f.SlugPinned,
		&fieldsJSON, &wa, &sid, &sname, &acct, &btn, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(fieldsJSON), &f.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields of form %d: %w", f.ID, err)
	}
	if f.Fields == nil {
		f.Fields = []model.FormField{}
	}
	f.WhatsAppNumber = stringPtr(wa)
	f.GoogleSheetID = stringPtr(sid)
	f.GoogleSheetName = stringPtr(sname)
	f.ConnectedAccountID = intPtr(acct)
	f.SubmitButtonText = stringPtr(btn)
	return &f, nil
}

func encodeFields(fs []model.FormField) (string, error) {
	if fs == nil {
		fs = []model.FormField{}
	}
	b, err := json.Marshal(fs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts the form and fills in its id and timestamps.
// A duplicate share id is reported as a conflict so the caller can retry
// with a new one.
func (db *FormDB) Create(ctx context.Context, form *model.Form) error {
	fieldsJSON, err := encodeFields(form.Fields)
	if err != nil {
		return fmt.Errorf("sqlite: encoding fields: %w", err)
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO forms (user_id, share_id, title, slug, slug_pinned, fields,
			whatsapp_number, google_sheet_id, google_sheet_name, connected_account_id,
			submit_button_text, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		form.UserID, form.ShareID, form.Title, form.Slug, form.SlugPinned, fieldsJSON,
		nullString(form.WhatsAppNumber), nullString(form.GoogleSheetID),
		nullString(form.GoogleSheetName), nullInt(form.ConnectedAccountID),
		nullString(form.SubmitButtonText), form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("form share id", form.ShareID)
		}
		return fmt.Errorf("sqlite: creating form: %w", err)
	}
	form.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading form id: %w", err)
	}
	return nil
}

func (db *FormDB) GetByID(ctx context.Context, id int64) (*model.Form, error) {
	f, err := scanForm(db.conn.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("form", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting form %d: %w", id, err)
	}
	return f, nil
}

func (db *FormDB) GetByShareID(ctx context.Context, shareID string) (*model.Form, error) {
	f, err := scanForm(db.conn.QueryRowContext(ctx,
		`SELECT `+formColumns+` FROM forms WHERE share_id = ?`, shareID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("form", shareID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting form by share id: %w", err)
	}
	return f, nil
}

// ListByUser returns the user's forms, newest first.
func (db *FormDB) ListByUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Form, error) {
	limit, offset := clampPage(opts)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+formColumns+` FROM forms
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing forms: %w", err)
	}
	defer rows.Close()

	forms := make([]model.Form, 0, limit)
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning form: %w", err)
		}
		forms = append(forms, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating forms: %w", err)
	}
	return forms, nil
}

// Update writes every mutable column. share_id, user_id and created_at
// are never touched.
func (db *FormDB) Update(ctx context.Context, form *model.Form) error {
	fieldsJSON, err := encodeFields(form.Fields)
	if err != nil {
		return fmt.Errorf("sqlite: encoding fields: %w", err)
	}
	form.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE forms SET title = ?, slug = ?, slug_pinned = ?, fields = ?,
			whatsapp_number = ?, google_sheet_id = ?, google_sheet_name = ?,
			connected_account_id = ?, submit_button_text = ?, updated_at = ?
		 WHERE id = ?`,
		form.Title, form.Slug, form.SlugPinned, fieldsJSON,
		nullString(form.WhatsAppNumber), nullString(form.GoogleSheetID),
		nullString(form.GoogleSheetName), nullInt(form.ConnectedAccountID),
		nullString(form.SubmitButtonText), form.UpdatedAt, form.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating form %d: %w", form.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("form", strconv.FormatInt(form.ID, 10))
	}
	return nil
}

// Delete removes the form and its submissions in one transaction. The
// foreign key cascades too; deleting explicitly keeps the guarantee when a
// connection runs without foreign key enforcement.
func (db *FormDB) Delete(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE form_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting submissions of form %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting form %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("form", strconv.FormatInt(id, 10))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return nil
}
