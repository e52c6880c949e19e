package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores user accounts. Emails are stored lowercased.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, email, name, password_hash, google_id, avatar_url, created_at`

func scanUser(row scanner) (*model.User, error) {
	var (
		u        model.User
		googleID sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &googleID, &u.AvatarURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.GoogleID = stringPtr(googleID)
	return &u, nil
}

// Create inserts a user. A taken email or google id is a conflict.
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, google_id, avatar_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.Name, user.PasswordHash, nullString(user.GoogleID),
		user.AvatarURL, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	return nil
}

func (db *UserDB) get(ctx context.Context, where, key string, arg any) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", where, err)
	}
	return u, nil
}

func (db *UserDB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return db.get(ctx, "id", strconv.FormatInt(id, 10), id)
}

func (db *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return db.get(ctx, "email", email, email)
}

func (db *UserDB) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	return db.get(ctx, "google_id", googleID, googleID)
}

// LinkGoogle attaches a Google identity to an existing user. The avatar is
// only filled in when the user has none.
func (db *UserDB) LinkGoogle(ctx context.Context, userID int64, googleID, avatarURL string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET google_id = ?,
			avatar_url = CASE WHEN avatar_url = '' THEN ? ELSE avatar_url END
		 WHERE id = ?`,
		googleID, avatarURL, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("google account", googleID)
		}
		return fmt.Errorf("sqlite: linking google account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	return nil
}
