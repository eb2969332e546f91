// Package identity wraps the hosted identity provider (Supabase GoTrue).
// It returns provider facts only; no user-record or session decisions are
// made here.
package identity

import (
	"context"
	"time"
)

// User is the provider's user record.
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud,omitempty"`
	Role             string         `json:"role,omitempty"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// Session is the provider-issued session returned by sign-in flows.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
}

// AdminCreateUserRequest is the admin user-creation payload.
type AdminCreateUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

// Client is the capability surface this service needs from the provider.
type Client interface {
	SignInWithPassword(ctx context.Context, email, password string) (User, Session, error)
	SignInWithIDToken(ctx context.Context, provider, idToken string) (User, Session, error)
	GetUser(ctx context.Context, accessToken string) (User, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	AdminCreateUser(ctx context.Context, req AdminCreateUserRequest) (User, error)
	AdminDeleteUser(ctx context.Context, id string) error
	AdminListUsers(ctx context.Context, page, perPage int) ([]User, error)
}

// ProviderError carries the provider's own message text untranslated.
// Callers only distinguish failure from success; the message is surfaced
// to the HTTP layer as-is.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}
