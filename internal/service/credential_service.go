package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/repository"
)

// CredentialStore holds the process-wide authentication token and role.
// Writes reach the durable repository before the in-memory copy, so a
// failed write leaves the previous credential in place.
type CredentialStore struct {
	mu   sync.RWMutex
	repo repository.CredentialRepository
	cred model.Credential
	log  zerolog.Logger
	now  func() time.Time
}

// NewCredentialStore creates a store over repo. Call Load to restore a
// persisted credential.
func NewCredentialStore(repo repository.CredentialRepository, log zerolog.Logger) *CredentialStore {
	return &CredentialStore{
		repo: repo,
		cred: model.Anonymous,
		log:  log.With().Str("component", "credential_store").Logger(),
		now:  time.Now,
	}
}

// Load restores the persisted credential. A missing, corrupt or expired
// record leaves the store anonymous; corrupt and expired records are deleted.
// Only repository I/O errors are returned.
func (s *CredentialStore) Load(ctx context.Context) error {
	cred, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.set(model.Anonymous)
		return nil
	case errors.Is(err, repository.ErrCorrupt):
		s.log.Warn().Err(err).Msg("Discarding unreadable credential")
		if err := s.repo.Delete(ctx); err != nil {
			return fmt.Errorf("discard corrupt credential: %w", err)
		}
		s.set(model.Anonymous)
		return nil
	case err != nil:
		return fmt.Errorf("load credential: %w", err)
	}

	if exp, ok := tokenExpiry(cred.Token); ok && !exp.After(s.now()) {
		s.log.Info().Time("expired_at", exp).Str("role", string(cred.Role)).Msg("Discarding expired credential")
		if err := s.repo.Delete(ctx); err != nil {
			return fmt.Errorf("discard expired credential: %w", err)
		}
		s.set(model.Anonymous)
		return nil
	}

	s.set(cred)
	return nil
}

// Current returns a copy of the held credential.
func (s *CredentialStore) Current() model.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// Token returns the bearer token, or "" when anonymous.
func (s *CredentialStore) Token() string {
	return s.Current().Token
}

// Role returns the held role; anonymous when no credential is held.
func (s *CredentialStore) Role() model.Role {
	cred := s.Current()
	if cred.IsAnonymous() {
		return model.RoleAnonymous
	}
	return cred.Role
}

// ExpiresAt reports the token's expiry when the token is a JWT carrying an
// exp claim. Opaque tokens report false.
func (s *CredentialStore) ExpiresAt() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

// Set persists cred and makes it current.
func (s *CredentialStore) Set(ctx context.Context, cred model.Credential) error {
	if err := s.repo.Save(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	s.set(cred)
	s.log.Debug().Str("role", string(cred.Role)).Msg("Credential stored")
	return nil
}

// Clear removes the persisted credential and returns the store to anonymous.
func (s *CredentialStore) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	s.set(model.Anonymous)
	s.log.Debug().Msg("Credential cleared")
	return nil
}

func (s *CredentialStore) set(cred model.Credential) {
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client never holds the signing key.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
