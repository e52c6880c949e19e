package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

// AuthService registers and signs in users and issues session tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the session token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a local account. A taken email is a Conflict.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	hash, err := s.passwords.Hash(password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		case errors.Is(err, auth.ErrPasswordTooLong):
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "an account with this email already exists",
				Field:   "email",
			}
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("userId", user.ID))
	return s.issue(user)
}

// Login checks email and password. Unknown emails and wrong passwords get
// the same Unauthorized error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	// Google-only accounts have no password.
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, invalid
	}

	s.logger.Info("user logged in", slog.Int64("userId", user.ID))
	return s.issue(user)
}

// GoogleLogin signs in with a Google identity: by Google id first, then by
// linking a local account with the same email, else by creating a user.
func (s *AuthService) GoogleLogin(ctx context.Context, id *auth.GoogleIdentity) (*AuthResult, error) {
	if id == nil || id.ID == "" {
		return nil, fmt.Errorf("google identity must not be empty")
	}

	user, err := s.users.GetByGoogleID(ctx, id.ID)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("fetching user by google id: %w", err)
	}

	if id.Email != "" {
		user, err = s.users.GetByEmail(ctx, id.Email)
		switch {
		case err == nil:
			if err := s.users.LinkGoogle(ctx, user.ID, id.ID, id.Picture); err != nil {
				return nil, fmt.Errorf("linking google account: %w", err)
			}
			gid := id.ID
			user.GoogleID = &gid
			user.AvatarURL = id.Picture
			s.logger.Info("google account linked", slog.Int64("userId", user.ID))
			return s.issue(user)
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, fmt.Errorf("fetching user by email: %w", err)
		}
	}

	gid := id.ID
	user = &model.User{
		Email:     strings.ToLower(id.Email),
		Name:      id.Name,
		GoogleID:  &gid,
		AvatarURL: id.Picture,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating google user: %w", err)
	}
	s.logger.Info("user registered via google", slog.Int64("userId", user.ID))
	return s.issue(user)
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("session user no longer exists")
		}
		return nil, fmt.Errorf("fetching user %s: %w", strconv.FormatInt(userID, 10), err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not valid")
	}
	return email, nil
}
