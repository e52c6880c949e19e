package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/sakif/waform/internal/apperror"
	"github.com/sakif/waform/internal/integration"
)

func TestAccountConnect_ReconnectKeepsRefreshToken(t *testing.T) {
	h := newHarness(t)

	first, err := h.accountSvc.Connect(context.Background(), 1, googleIdentity("g-1", "g@example.com"))
	require.NoError(t, err)

	again := googleIdentity("g-1", "g@example.com")
	again.Token = &oauth2.Token{AccessToken: "new-access"}
	second, err := h.accountSvc.Connect(context.Background(), 1, again)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	stored := h.accounts.accts[first.ID]
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken)
}

func TestAccountDisconnect_Ownership(t *testing.T) {
	h := newHarness(t)
	acct, err := h.accountSvc.Connect(context.Background(), 1, googleIdentity("g-1", "g@example.com"))
	require.NoError(t, err)

	err = h.accountSvc.Disconnect(context.Background(), 2, acct.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))

	require.NoError(t, h.accountSvc.Disconnect(context.Background(), 1, acct.ID))
	err = h.accountSvc.Disconnect(context.Background(), 1, acct.ID)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestAccountSpreadsheets(t *testing.T) {
	h := newHarness(t)
	h.sheets.sheets = []integration.Spreadsheet{{ID: "s1", Name: "Leads"}}
	acct, err := h.accountSvc.Connect(context.Background(), 1, googleIdentity("g-1", "g@example.com"))
	require.NoError(t, err)

	got, err := h.accountSvc.Spreadsheets(context.Background(), 1, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, h.sheets.sheets, got)

	_, err = h.accountSvc.Spreadsheets(context.Background(), 2, acct.ID)
	assert.True(t, errors.Is(err, apperror.ErrForbidden))
}

func TestAccountSpreadsheets_NotConfigured(t *testing.T) {
	h := newHarness(t)
	svc := NewAccountService(h.accounts, nil, testLogger())

	_, err := svc.Spreadsheets(context.Background(), 1, 1)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestAccountSaveToken(t *testing.T) {
	h := newHarness(t)
	acct, err := h.accountSvc.Connect(context.Background(), 1, googleIdentity("g-1", "g@example.com"))
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, h.accountSvc.SaveToken(context.Background(), acct.ID, &oauth2.Token{AccessToken: "rotated", Expiry: expiry}))

	stored := h.accounts.accts[acct.ID]
	assert.Equal(t, "rotated", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken)
	assert.True(t, stored.Expiry.Equal(expiry))
}
