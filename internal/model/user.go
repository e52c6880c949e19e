package model

import "time"

// User is an account that owns forms.
//
// A user signs up either with email and password (PasswordHash set) or
// through Google (GoogleID set). Signing in with Google using an email that
// already has a local account links the two.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	GoogleID     *string   `json:"googleId,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ConnectedAccount holds the OAuth tokens used to write submissions to a
// user's spreadsheets. Tokens never leave the server.
type ConnectedAccount struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"providerId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	Expiry       time.Time `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

const ProviderGoogle = "google"
