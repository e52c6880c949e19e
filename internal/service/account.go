package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/oauth2"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/auth"
	"github.com/sakif/waform/internal/integration"
	"github.com/sakif/waform/internal/model"
	"github.com/sakif/waform/internal/repository"
)

// AccountService manages the Google accounts a user connected for
// spreadsheet delivery.
type AccountService struct {
	accounts repository.AccountRepository
	lister   integration.SheetLister
	logger   *slog.Logger
}

// NewAccountService wires the service. lister may be nil when Google is
// not configured.
func NewAccountService(accounts repository.AccountRepository, lister integration.SheetLister, logger *slog.Logger) *AccountService {
	return &AccountService{accounts: accounts, lister: lister, logger: logger}
}

// Connect stores the identity's tokens as a connected account of userID.
// Reconnecting the same Google account refreshes it in place.
func (s *AccountService) Connect(ctx context.Context, userID int64, id *auth.GoogleIdentity) (*model.ConnectedAccount, error) {
	if id == nil || id.Token == nil {
		return nil, fmt.Errorf("google identity has no token")
	}
	acct := &model.ConnectedAccount{
		UserID:       userID,
		Provider:     model.ProviderGoogle,
		ProviderID:   id.ID,
		Email:        id.Email,
		Name:         id.Name,
		AccessToken:  id.Token.AccessToken,
		RefreshToken: id.Token.RefreshToken,
		Expiry:       id.Token.Expiry,
	}
	if err := s.accounts.Upsert(ctx, acct); err != nil {
		return nil, fmt.Errorf("storing connected account: %w", err)
	}
	s.logger.Info("account connected",
		slog.Int64("userId", userID),
		slog.Int64("accountId", acct.ID),
	)
	return acct, nil
}

func (s *AccountService) List(ctx context.Context, userID int64) ([]model.ConnectedAccount, error) {
	accts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing connected accounts: %w", err)
	}
	return accts, nil
}

// Disconnect deletes an owned account. Forms targeting it lose their
// account reference.
func (s *AccountService) Disconnect(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting connected account: %w", err)
	}
	s.logger.Info("account disconnected", slog.Int64("accountId", id))
	return nil
}

// Spreadsheets lists the spreadsheets reachable through an owned account.
func (s *AccountService) Spreadsheets(ctx context.Context, userID, id int64) ([]integration.Spreadsheet, error) {
	if s.lister == nil {
		return nil, apperror.ValidationFailed("accountId", "google integration is not configured")
	}
	acct, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	sheets, err := s.lister.ListSpreadsheets(ctx, acct)
	if err != nil {
		s.logger.Error("failed to list spreadsheets",
			slog.Int64("accountId", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing spreadsheets: %w", err)
	}
	return sheets, nil
}

// SaveToken persists a refreshed token. The sheets client calls it after
// the OAuth library renewed an expired access token.
func (s *AccountService) SaveToken(ctx context.Context, accountID int64, tok *oauth2.Token) error {
	return s.accounts.UpdateToken(ctx, accountID, tok.AccessToken, tok.RefreshToken, tok.Expiry)
}

func (s *AccountService) owned(ctx context.Context, userID, id int64) (*model.ConnectedAccount, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("connected account", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("fetching connected account: %w", err)
	}
	if acct.UserID != userID {
		return nil, apperror.Forbidden("connected account belongs to another user")
	}
	return acct, nil
}
