package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

var _ repository.AccountRepository = (*AccountDB)(nil)

// AccountDB stores connected OAuth accounts.
type AccountDB struct {
	conn *sql.DB
}

const accountColumns = `id, user_id, provider, provider_id, email, name,
	access_token, refresh_token, token_expiry, created_at`

func scanAccount(row scanner) (*model.ConnectedAccount, error) {
	var (
		a      model.ConnectedAccount
		expiry sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Provider, &a.ProviderID, &a.Email, &a.Name,
		&a.AccessToken, &a.RefreshToken, &expiry, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		a.Expiry = expiry.Time
	}
	return &a, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Upsert inserts the account or, when the same provider identity is
// already connected for this user, refreshes its profile and tokens. A
// reconnect that returns no refresh token keeps the stored one.
func (db *AccountDB) Upsert(ctx context.Context, acct *model.ConnectedAccount) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO connected_accounts
			(user_id, provider, provider_id, email, name, access_token, refresh_token, token_expiry, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, provider, provider_id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN refresh_token ELSE excluded.refresh_token END,
			token_expiry = excluded.token_expiry`,
		acct.UserID, acct.Provider, acct.ProviderID, acct.Email, acct.Name,
		acct.AccessToken, acct.RefreshToken, nullTime(acct.Expiry), now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting connected account: %w", err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM connected_accounts
		 WHERE user_id = ? AND provider = ? AND provider_id = ?`,
		acct.UserID, acct.Provider, acct.ProviderID,
	).Scan(&acct.ID, &acct.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading connected account id: %w", err)
	}
	return nil
}

func (db *AccountDB) GetByID(ctx context.Context, id int64) (*model.ConnectedAccount, error) {
	a, err := scanAccount(db.conn.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM connected_accounts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting connected account %d: %w", id, err)
	}
	return a, nil
}

func (db *AccountDB) ListByUser(ctx context.Context, userID int64) ([]model.ConnectedAccount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM connected_accounts
		 WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing connected accounts: %w", err)
	}
	defer rows.Close()

	var out []model.ConnectedAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning connected account: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating connected accounts: %w", err)
	}
	return out, nil
}

// UpdateToken stores a refreshed token. An empty refresh token keeps the
// stored one.
func (db *AccountDB) UpdateToken(ctx context.Context, id int64, access, refresh string, expiry time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE connected_accounts SET access_token = ?,
			refresh_token = CASE WHEN ? = '' THEN refresh_token ELSE ? END,
			token_expiry = ?
		 WHERE id = ?`,
		access, refresh, refresh, nullTime(expiry), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating token of account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	return nil
}

// Delete disconnects the account. Forms pointing at it lose their sheet
// account through ON DELETE SET NULL.
func (db *AccountDB) Delete(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM connected_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting connected account %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("connected account", strconv.FormatInt(id, 10))
	}
	return nil
}
