// Package repository declares the storage contracts the services depend on.
// The sqlite subpackage implements them.
package repository

import (
	"context"
	"time"

	"github.com/sakif/waform/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// FormRepository stores forms. Delete also removes the form's submissions.
type FormRepository interface {
	Create(ctx context.Context, form *model.Form) error
	GetByID(ctx context.Context, id int64) (*model.Form, error)
	GetByShareID(ctx context.Context, shareID string) (*model.Form, error)
	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]model.Form, error)
	Update(ctx context.Context, form *model.Form) error
	Delete(ctx context.Context, id int64) error
}

// SubmissionRepository is append-only.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	ListByForm(ctx context.Context, formID int64, opts ListOptions) ([]model.Submission, error)
	CountByForm(ctx context.Context, formID int64) (int, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	LinkGoogle(ctx context.Context, userID int64, googleID, avatarURL string) error
}

// AccountRepository stores OAuth connections used for spreadsheet access.
type AccountRepository interface {
	Upsert(ctx context.Context, acct *model.ConnectedAccount) error
	GetByID(ctx context.Context, id int64) (*model.ConnectedAccount, error)
	ListByUser(ctx context.Context, userID int64) ([]model.ConnectedAccount, error)
	UpdateToken(ctx context.Context, id int64, access, refresh string, expiry time.Time) error
	Delete(ctx context.Context, id int64) error
}
