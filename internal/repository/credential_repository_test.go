package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/config"
	"github.com/stemsi/exstem-certify/internal/database"
	"github.com/stemsi/exstem-certify/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBolt(t *testing.T, path string) *BoltCredentialRepository {
	t.Helper()
	cfg := &config.Config{CredentialPath: path}
	db, err := database.NewBoltDB(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBoltCredentialRepository(db, "auth-storage")
}

// exerciseRepository runs the shared contract every backend must satisfy.
func exerciseRepository(t *testing.T, repo CredentialRepository) {
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	cred := model.Credential{Token: "tok-1", Role: model.RoleCandidate}
	require.NoError(t, repo.Save(ctx, cred))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cred, got)

	admin := model.Credential{Token: "tok-2", Role: model.RoleAdmin}
	require.NoError(t, repo.Save(ctx, admin))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, got)

	require.NoError(t, repo.Delete(ctx))
	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Delete(ctx))
}

func TestBoltCredentialRepository(t *testing.T) {
	exerciseRepository(t, openBolt(t, filepath.Join(t.TempDir(), "certify.db")))
}

func TestBoltCredentialSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "certify.db")
	ctx := context.Background()

	cfg := &config.Config{CredentialPath: path}
	db, err := database.NewBoltDB(cfg, zerolog.Nop())
	require.NoError(t, err)
	repo := NewBoltCredentialRepository(db, "auth-storage")
	require.NoError(t, repo.Save(ctx, model.Credential{Token: "persisted", Role: model.RoleCandidate}))
	require.NoError(t, db.Close())

	reopened := openBolt(t, path)
	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Token)
	assert.Equal(t, model.RoleCandidate, got.Role)
}

func TestRedisCredentialRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	repo := NewRedisCredentialRepository(rdb, "auth-storage")
	exerciseRepository(t, repo)

	require.NoError(t, repo.Save(context.Background(), model.Credential{Token: "t", Role: model.RoleAdmin}))
	raw, err := mr.Get("certify:auth-storage")
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"t","role":"admin"}`, raw)
}

func TestRedisCredentialRejectsCorruptRecord(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	require.NoError(t, mr.Set("certify:auth-storage", `{"token":"t","role":"root"}`))

	_, err := NewRedisCredentialRepository(rdb, "auth-storage").Load(context.Background())
	require.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryCredentialRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryCredentialRepository())
}
