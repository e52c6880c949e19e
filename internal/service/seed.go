package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
	DemoName     = "Demo User"
)

// DemoFields are the questions of the seeded "Contact Us" form.
func DemoFields() []model.FormField {
	return []model.FormField{
		{ID: "name-field", Type: model.FieldText, Label: "Full Name", Placeholder: "John Doe", Required: true},
		{ID: "email-field", Type: model.FieldEmail, Label: "Email Address", Placeholder: "john@example.com", Required: true},
		{ID: "message-field", Type: model.FieldTextarea, Label: "Message", Placeholder: "How can we help you?", Required: true},
	}
}

// SeedResult reports what Seed did.
type SeedResult struct {
	User        *model.User
	Form        *model.Form // nil when the demo user already had forms
	CreatedUser bool
}

// Seed makes sure the demo user exists and owns at least one form. It is
// safe to run repeatedly.
func Seed(ctx context.Context, users repository.UserRepository, forms *FormService, passwords *auth.PasswordService, logger *slog.Logger) (*SeedResult, error) {
	res := &SeedResult{}

	user, err := users.GetByEmail(ctx, DemoEmail)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		hash, err := passwords.Hash(DemoPassword)
		if err != nil {
			return nil, fmt.Errorf("seed: hashing demo password: %w", err)
		}
		user = &model.User{Email: DemoEmail, Name: DemoName, PasswordHash: hash}
		if err := users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("seed: creating demo user: %w", err)
		}
		res.CreatedUser = true
	case err != nil:
		return nil, fmt.Errorf("seed: fetching demo user: %w", err)
	}
	res.User = user

	existing, err := forms.List(ctx, user.ID, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return res, nil
	}

	form, err := forms.Create(ctx, user.ID, model.FormInput{Title: "Contact Us", Fields: DemoFields()})
	if err != nil {
		return nil, fmt.Errorf("seed: creating demo form: %w", err)
	}
	res.Form = form
	logger.Info("seeded demo form",
		slog.Int64("userId", user.ID),
		slog.String("shareId", form.ShareID),
	)
	return res, nil
}
