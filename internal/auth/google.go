package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Scopes for the two Google flows. Signing in only needs the profile;
// connecting an account for spreadsheets also needs offline access to
// Sheets and read access to the Drive file list.
var (
	signInScopes  = []string{"openid", "email", "profile"}
	connectScopes = []string{
		"openid", "email", "profile",
		"https://www.googleapis.com/auth/spreadsheets",
		"https://www.googleapis.com/auth/drive.metadata.readonly",
	}
)

// GoogleIdentity is the profile returned after a successful exchange.
type GoogleIdentity struct {
	ID      string
	Email   string
	Name    string
	Picture string
	Token   *oauth2.Token
}

// GoogleProvider wraps the OAuth configuration for sign-in and for
// connecting a spreadsheet account.
type GoogleProvider struct {
	signIn  *oauth2.Config
	connect *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	base := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  callbackURL,
		Endpoint:     google.Endpoint,
	}
	signIn, connect := base, base
	signIn.Scopes = signInScopes
	connect.Scopes = connectScopes
	return &GoogleProvider{signIn: &signIn, connect: &connect}
}

// Configured reports whether client credentials were provided.
func (p *GoogleProvider) Configured() bool {
	return p != nil && p.signIn.ClientID != "" && p.signIn.ClientSecret != ""
}

// AuthURL is the consent page for signing in.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.signIn.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ConnectURL is the consent page for spreadsheet access. It forces the
// consent prompt so Google returns a refresh token.
func (p *GoogleProvider) ConnectURL(state string) string {
	return p.connect.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the callback code for a token and the user's profile.
// Both flows share the callback, and the code is bound to the scopes it
// was issued for, so the connect configuration works for either.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleIdentity, error) {
	tok, err := p.connect.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(p.connect.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("auth: creating userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("auth: fetching Google profile: %w", err)
	}
	if info.Id == "" {
		return nil, fmt.Errorf("auth: Google returned a profile without an id")
	}

	return &GoogleIdentity{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
		Token:   tok,
	}, nil
}

// TokenSource returns a source that refreshes tok when it expires.
func (p *GoogleProvider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return p.connect.TokenSource(ctx, tok)
}
