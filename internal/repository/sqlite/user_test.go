package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/model"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	u := &model.User{Email: "  Jane@Example.com ", Name: "Jane", PasswordHash: "hash"}

	if err := db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == 0 {
		t.Error("Create() did not set user.ID")
	}
	if u.Email != "jane@example.com" {
		t.Errorf("Email = %q, want normalised", u.Email)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "jane@example.com")

	err := db.Users().Create(context.Background(), &model.User{Email: "JANE@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "jane@example.com")

	got, err := db.Users().GetByEmail(context.Background(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}
	if got.GoogleID != nil {
		t.Errorf("GoogleID = %v, want nil", *got.GoogleID)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Users().GetByID(context.Background(), 77)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserLinkGoogle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := createTestUser(t, db, "jane@example.com")

	if err := db.Users().LinkGoogle(ctx, u.ID, "g-123", "https://img/avatar.png"); err != nil {
		t.Fatalf("LinkGoogle() error = %v", err)
	}

	got, err := db.Users().GetByGoogleID(ctx, "g-123")
	if err != nil {
		t.Fatalf("GetByGoogleID() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %d, want %d", got.ID, u.ID)
	}
	if got.AvatarURL != "https://img/avatar.png" {
		t.Errorf("AvatarURL = %q", got.AvatarURL)
	}

	other := createTestUser(t, db, "other@example.com")
	err = db.Users().LinkGoogle(ctx, other.ID, "g-123", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("LinkGoogle() twice error = %v, want ErrConflict", err)
	}
}
