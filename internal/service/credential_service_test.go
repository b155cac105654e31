package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stemsi/exstem-certify/internal/repository"
	"github.com/stemsi/exstem-certify/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStoreStartsAnonymous(t *testing.T) {
	store := NewCredentialStore(repository.NewMemoryCredentialRepository(), zerolog.Nop())
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, model.RoleAnonymous, store.Role())
	assert.Empty(t, store.Token())
	_, ok := store.ExpiresAt()
	assert.False(t, ok)
}

func TestCredentialStoreRestoresPersisted(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	token := testutil.IssueToken("candidate", time.Hour)

	first := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, first.Set(ctx, model.Credential{Token: token, Role: model.RoleCandidate}))

	second := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, second.Load(ctx))
	assert.Equal(t, token, second.Token())
	assert.Equal(t, model.RoleCandidate, second.Role())

	exp, ok := second.ExpiresAt()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)
}

func TestCredentialStoreDiscardsExpiredToken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	require.NoError(t, repo.Save(ctx, model.Credential{
		Token: testutil.IssueToken("admin", -time.Hour),
		Role:  model.RoleAdmin,
	}))

	store := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, store.Load(ctx))

	assert.Equal(t, model.RoleAnonymous, store.Role())
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// corruptRepo holds an undecodable record until it is deleted.
type corruptRepo struct {
	repository.CredentialRepository
	deleted bool
}

func (r *corruptRepo) Load(context.Context) (model.Credential, error) {
	if r.deleted {
		return model.Credential{}, repository.ErrNotFound
	}
	return model.Credential{}, fmt.Errorf("%w: unknown role %q", repository.ErrCorrupt, "root")
}

func (r *corruptRepo) Delete(context.Context) error {
	r.deleted = true
	return nil
}

func TestCredentialStoreDiscardsCorruptRecord(t *testing.T) {
	ctx := context.Background()
	repo := &corruptRepo{}

	store := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, store.Load(ctx))

	assert.Equal(t, model.RoleAnonymous, store.Role())
	assert.Empty(t, store.Token())
	assert.True(t, repo.deleted)

	// The next start finds nothing to restore.
	require.NoError(t, NewCredentialStore(repo, zerolog.Nop()).Load(ctx))
}

func TestCredentialStoreKeepsOpaqueToken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	require.NoError(t, repo.Save(ctx, model.Credential{Token: "opaque-session-token", Role: model.RoleCandidate}))

	store := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, store.Load(ctx))

	assert.Equal(t, "opaque-session-token", store.Token())
	_, ok := store.ExpiresAt()
	assert.False(t, ok)
}

func TestCredentialStoreFailedSetKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	store := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, store.Set(ctx, model.Credential{Token: "old", Role: model.RoleCandidate}))

	store.repo = failingRepo{repo}
	err := store.Set(ctx, model.Credential{Token: "new", Role: model.RoleAdmin})

	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, "old", store.Token())
	assert.Equal(t, model.RoleCandidate, store.Role())

	require.ErrorIs(t, store.Clear(ctx), errDiskFull)
	assert.Equal(t, "old", store.Token())
}

func TestCredentialStoreClear(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCredentialRepository()
	store := NewCredentialStore(repo, zerolog.Nop())
	require.NoError(t, store.Set(ctx, model.Credential{Token: "tok", Role: model.RoleAdmin}))

	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, model.RoleAnonymous, store.Role())
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
