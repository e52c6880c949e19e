package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/auth"
)

// ===== REGISTER / LOGIN TESTS =====

func TestRegister_Success(t *testing.T) {
	h := newHarness(t)

	res, err := h.authSvc.Register(context.Background(), " Ada@Example.com ", "secret1", "Ada")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Token == "" {
		t.Error("expected a session token")
	}
	if res.User.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized", res.User.Email)
	}
	if res.User.PasswordHash == "secret1" || res.User.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "secret1", apperror.ErrValidation},
		{"bad email", "not-an-email", "secret1", apperror.ErrValidation},
		{"short password", "a@b.co", "12345", apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.authSvc.Register(context.Background(), tt.email, tt.password, "x")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	if _, err := h.authSvc.Register(context.Background(), "a@b.co", "secret1", ""); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := h.authSvc.Register(context.Background(), "A@B.co", "secret2", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	reg, _ := h.authSvc.Register(context.Background(), "a@b.co", "secret1", "")

	res, err := h.authSvc.Login(context.Background(), "a@b.co", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Errorf("logged in as %d, want %d", res.User.ID, reg.User.ID)
	}

	for _, tc := range [][2]string{{"a@b.co", "wrong!!"}, {"nobody@b.co", "secret1"}} {
		if _, err := h.authSvc.Login(context.Background(), tc[0], tc[1]); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login(%q) error = %v, want ErrUnauthorized", tc[0], err)
		}
	}
}

func TestMe_DeletedUser(t *testing.T) {
	h := newHarness(t)

	_, err := h.authSvc.Me(context.Background(), 42)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

// ===== GOOGLE TESTS =====

func googleIdentity(id, email string) *auth.GoogleIdentity {
	return &auth.GoogleIdentity{
		ID:      id,
		Email:   email,
		Name:    "G User",
		Picture: "https://example.com/a.png",
		Token:   &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"},
	}
}

func TestGoogleLogin_CreatesThenFinds(t *testing.T) {
	h := newHarness(t)

	first, err := h.authSvc.GoogleLogin(context.Background(), googleIdentity("g-1", "g@example.com"))
	if err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}
	second, err := h.authSvc.GoogleLogin(context.Background(), googleIdentity("g-1", "changed@example.com"))
	if err != nil {
		t.Fatalf("second GoogleLogin() error = %v", err)
	}
	if first.User.ID != second.User.ID {
		t.Errorf("second login created a new user: %d vs %d", first.User.ID, second.User.ID)
	}
	if len(h.users.users) != 1 {
		t.Errorf("users = %d, want 1", len(h.users.users))
	}
}

func TestGoogleLogin_LinksExistingEmail(t *testing.T) {
	h := newHarness(t)
	local, _ := h.authSvc.Register(context.Background(), "g@example.com", "secret1", "Local")

	res, err := h.authSvc.GoogleLogin(context.Background(), googleIdentity("g-2", "g@example.com"))
	if err != nil {
		t.Fatalf("GoogleLogin() error = %v", err)
	}
	if res.User.ID != local.User.ID {
		t.Errorf("linked user = %d, want %d", res.User.ID, local.User.ID)
	}
	stored := h.users.users[local.User.ID]
	if stored.GoogleID == nil || *stored.GoogleID != "g-2" {
		t.Error("google id was not linked")
	}
}
