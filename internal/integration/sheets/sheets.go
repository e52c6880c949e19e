// Package sheets implements the spreadsheet integration on the Google
// Sheets and Drive APIs, authorised with a connected account's tokens.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/sakif/waform/internal/integration"
	"github.com/sakif/waform/internal/model"
)

var (
	_ integration.SheetAppender = (*Client)(nil)
	_ integration.SheetLister   = (*Client)(nil)
)

const (
	spreadsheetMime = "application/vnd.google-apps.spreadsheet"

	// Ranges without a tab name address the first tab of the spreadsheet.
	headerRange = "A1:1"
	tableRange  = "A1"
)

// TokenSourcer builds refreshing token sources. auth.GoogleProvider
// satisfies it.
type TokenSourcer interface {
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// TokenSaver persists a token that was refreshed during a call.
type TokenSaver interface {
	SaveToken(ctx context.Context, accountID int64, tok *oauth2.Token) error
}

// TokenSaverFunc adapts a function to TokenSaver.
type TokenSaverFunc func(ctx context.Context, accountID int64, tok *oauth2.Token) error

func (f TokenSaverFunc) SaveToken(ctx context.Context, accountID int64, tok *oauth2.Token) error {
	return f(ctx, accountID, tok)
}

// Client talks to Google on behalf of connected accounts.
type Client struct {
	tokens TokenSourcer
	saver  TokenSaver
	logger *slog.Logger
	opts   []option.ClientOption

	// one mutex per spreadsheet id; the header check and the append must
	// not interleave with another append to the same sheet
	locks sync.Map
}

// New builds a client. saver may be nil. Extra options are passed to
// every API service, which tests use to point at a fake endpoint.
func New(tokens TokenSourcer, saver TokenSaver, logger *slog.Logger, opts ...option.ClientOption) *Client {
	return &Client{tokens: tokens, saver: saver, logger: logger, opts: opts}
}

func accountToken(acct *model.ConnectedAccount) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		Expiry:       acct.Expiry,
		TokenType:    "Bearer",
	}
}

// tokenSource returns the account's source and a func that saves the
// token afterwards if the library refreshed it.
func (c *Client) tokenSource(ctx context.Context, acct *model.ConnectedAccount) (oauth2.TokenSource, func()) {
	orig := accountToken(acct)
	ts := oauth2.ReuseTokenSource(orig, c.tokens.TokenSource(ctx, orig))
	return ts, func() {
		if c.saver == nil {
			return
		}
		cur, err := ts.Token()
		if err != nil || cur.AccessToken == orig.AccessToken {
			return
		}
		if err := c.saver.SaveToken(ctx, acct.ID, cur); err != nil {
			c.logger.Warn("failed to persist refreshed token",
				slog.Int64("accountId", acct.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Client) clientOptions(ts oauth2.TokenSource) []option.ClientOption {
	return append([]option.ClientOption{option.WithTokenSource(ts)}, c.opts...)
}

func (c *Client) lock(spreadsheetID string) func() {
	v, _ := c.locks.LoadOrStore(spreadsheetID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// AppendRow appends row to the first tab. When that tab has no header
// row yet, header is written in the same call. Values are stored RAW so
// answers starting with = or + stay text instead of becoming formulas.
func (c *Client) AppendRow(ctx context.Context, acct *model.ConnectedAccount, spreadsheetID string, header, row []any) error {
	defer c.lock(spreadsheetID)()

	ts, saveToken := c.tokenSource(ctx, acct)
	defer saveToken()

	srv, err := gsheets.NewService(ctx, c.clientOptions(ts)...)
	if err != nil {
		return fmt.Errorf("sheets: creating service: %w", err)
	}

	existing, err := srv.Spreadsheets.Values.Get(spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: reading header of %s: %w", spreadsheetID, err)
	}

	values := [][]any{row}
	if len(existing.Values) == 0 {
		values = [][]any{header, row}
	}

	_, err = srv.Spreadsheets.Values.Append(spreadsheetID, tableRange, &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: appending to %s: %w", spreadsheetID, err)
	}
	return nil
}

// ListSpreadsheets returns up to 100 spreadsheets, most recently modified
// first.
func (c *Client) ListSpreadsheets(ctx context.Context, acct *model.ConnectedAccount) ([]integration.Spreadsheet, error) {
	ts, saveToken := c.tokenSource(ctx, acct)
	defer saveToken()

	srv, err := drive.NewService(ctx, c.clientOptions(ts)...)
	if err != nil {
		return nil, fmt.Errorf("sheets: creating drive service: %w", err)
	}

	res, err := srv.Files.List().
		Q(fmt.Sprintf("mimeType='%s' and trashed=false", spreadsheetMime)).
		Fields("files(id, name)").
		OrderBy("modifiedTime desc").
		PageSize(100).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: listing spreadsheets: %w", err)
	}

	out := make([]integration.Spreadsheet, 0, len(res.Files))
	for _, f := range res.Files {
		out = append(out, integration.Spreadsheet{ID: f.Id, Name: f.Name})
	}
	return out, nil
}
