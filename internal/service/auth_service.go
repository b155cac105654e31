package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/exam"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/response"
	"github.com/stemsi/exstem-certify/internal/validator"
)

// AdminAuthenticator is the remote call that signs an admin in.
type AdminAuthenticator interface {
	AdminLogin(ctx context.Context, req model.AdminLoginRequest) (*model.AdminLoginResponse, error)
}

// AuthService handles admin sign-in and logout for any role.
type AuthService struct {
	api   AdminAuthenticator
	creds *CredentialStore
	slot  *exam.Slot
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(api AdminAuthenticator, creds *CredentialStore, slot *exam.Slot, log zerolog.Logger) *AuthService {
	return &AuthService{
		api:   api,
		creds: creds,
		slot:  slot,
		log:   log.With().Str("component", "auth").Logger(),
	}
}

// AdminLogin exchanges admin credentials for an account-scoped token and
// stores it with role admin.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) error {
	req := model.AdminLoginRequest{Email: strings.TrimSpace(email), Password: password}
	if fields := validator.Struct(&req); fields != nil {
		return response.Precondition("Enter a valid email and password.", fields)
	}

	resp, err := s.api.AdminLogin(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Str("email", req.Email).Msg("Admin login failed")
		return err
	}

	if err := s.creds.Set(ctx, model.Credential{Token: resp.Token, Role: model.RoleAdmin}); err != nil {
		return response.Wrap(response.KindStoreFailed, "", err)
	}

	s.log.Info().Str("email", req.Email).Msg("Admin signed in")
	return nil
}

// Logout destroys the credential and drops any active session. The exam's
// answers are in memory only and are lost with it.
func (s *AuthService) Logout(ctx context.Context) error {
	if cur := s.slot.Current(); cur != nil && cur.State() == exam.StateSubmitting {
		return response.Precondition("A submission is in progress.", nil)
	}
	if err := s.creds.Clear(ctx); err != nil {
		return response.Wrap(response.KindStoreFailed, "", err)
	}
	if prev := s.slot.Release(); prev != nil {
		prev.Clear()
	}
	s.log.Info().Msg("Logged out")
	return nil
}
