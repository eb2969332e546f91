package services

import (
	"context"

	"github.com/contacerta/apiserver/internal/identity"
)

const googleProvider = "google"

// LoginResult is the provider user plus the provider-issued session.
type LoginResult struct {
	User    identity.User    `json:"user"`
	Session identity.Session `json:"session"`
}

// AuthService delegates authentication to the identity provider and keeps
// the local store in sync via the reconciler.
type AuthService struct {
	identity    identity.Client
	reconciler  *Reconciler
	frontendURL string
}

func NewAuthService(idp identity.Client, reconciler *Reconciler, frontendURL string) *AuthService {
	return &AuthService{
		identity:    idp,
		reconciler:  reconciler,
		frontendURL: frontendURL,
	}
}

// Login signs the user in with email/password and back-fills the local row
// when the provider knows the user but the store does not.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	ext, session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return LoginResult{}, Unauthorized(err.Error())
	}

	if err := s.reconciler.EnsureLocalUser(ctx, ext); err != nil {
		return LoginResult{}, Internal("Erro ao sincronizar o usuário: " + err.Error())
	}

	return LoginResult{User: ext, Session: session}, nil
}

// GoogleLogin signs the user in with a Google id-token; the local-row
// back-fill is the same as the password flow.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (LoginResult, error) {
	ext, session, err := s.identity.SignInWithIDToken(ctx, googleProvider, idToken)
	if err != nil {
		return LoginResult{}, Unauthorized(err.Error())
	}

	if err := s.reconciler.EnsureLocalUser(ctx, ext); err != nil {
		return LoginResult{}, Internal("Erro ao sincronizar o usuário: " + err.Error())
	}

	return LoginResult{User: ext, Session: session}, nil
}

// WhoAmI introspects the token with the provider.
func (s *AuthService) WhoAmI(ctx context.Context, token string) (identity.User, error) {
	ext, err := s.identity.GetUser(ctx, token)
	if err != nil {
		return identity.User{}, Unauthorized(err.Error())
	}
	return ext, nil
}

// Logout revokes the caller's session. The provider endpoint is scoped by
// the bearer token, so only the supplied session is invalidated.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.identity.SignOut(ctx, token); err != nil {
		return Unauthorized(err.Error())
	}
	return nil
}

// RequestPasswordReset asks the provider to email a reset link pointing
// back at the frontend.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	redirectTo := s.frontendURL + "/reset-password"
	if err := s.identity.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		return Unauthorized(err.Error())
	}
	return nil
}
