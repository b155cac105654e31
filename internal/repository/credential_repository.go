package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-certify/internal/config"
	"github.com/stemsi/exstem-certify/internal/model"
	bolt "go.etcd.io/bbolt"
)

// Repository errors.
var (
	ErrNotFound = errors.New("credential not found")
	// ErrCorrupt is returned when the stored record cannot be decoded.
	ErrCorrupt = errors.New("credential record is corrupt")
)

// CredentialRepository persists the single {token, role} record under one
// durable key.
type CredentialRepository interface {
	Load(ctx context.Context) (model.Credential, error)
	Save(ctx context.Context, cred model.Credential) error
	Delete(ctx context.Context) error
}

func decodeCredential(raw []byte) (model.Credential, error) {
	var cred model.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return model.Credential{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !cred.Role.Valid() {
		return model.Credential{}, fmt.Errorf("%w: unknown role %q", ErrCorrupt, cred.Role)
	}
	return cred, nil
}

// ────────────────────────────────────────────────────────────────────────────
// bbolt
// ────────────────────────────────────────────────────────────────────────────

// BoltCredentialRepository stores the credential in a local bbolt file.
type BoltCredentialRepository struct {
	db  *bolt.DB
	key []byte
}

// NewBoltCredentialRepository creates a repository over an opened bbolt DB.
func NewBoltCredentialRepository(db *bolt.DB, key string) *BoltCredentialRepository {
	return &BoltCredentialRepository{db: db, key: []byte(key)}
}

// Load reads the persisted credential.
func (r *BoltCredentialRepository) Load(_ context.Context) (model.Credential, error) {
	var raw []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(config.CacheKey.CredentialBucket())
		if b == nil {
			return nil
		}
		if v := b.Get(r.key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return model.Credential{}, fmt.Errorf("read credential: %w", err)
	}
	if raw == nil {
		return model.Credential{}, ErrNotFound
	}
	return decodeCredential(raw)
}

// Save overwrites the persisted credential.
func (r *BoltCredentialRepository) Save(_ context.Context, cred model.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	return r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(config.CacheKey.CredentialBucket())
		if err != nil {
			return fmt.Errorf("credential bucket: %w", err)
		}
		if err := b.Put(r.key, raw); err != nil {
			return fmt.Errorf("write credential: %w", err)
		}
		return nil
	})
}

// Delete removes the persisted credential. Deleting nothing is not an error.
func (r *BoltCredentialRepository) Delete(_ context.Context) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(config.CacheKey.CredentialBucket())
		if b == nil {
			return nil
		}
		if err := b.Delete(r.key); err != nil {
			return fmt.Errorf("delete credential: %w", err)
		}
		return nil
	})
}

// ────────────────────────────────────────────────────────────────────────────
// Redis
// ────────────────────────────────────────────────────────────────────────────

// RedisCredentialRepository stores the credential in redis so several
// terminals of one operator share a sign-in.
type RedisCredentialRepository struct {
	rdb *redis.Client
	key string
}

// NewRedisCredentialRepository creates a repository over a redis client.
func NewRedisCredentialRepository(rdb *redis.Client, name string) *RedisCredentialRepository {
	return &RedisCredentialRepository{rdb: rdb, key: config.CacheKey.CredentialKey(name)}
}

// Load reads the persisted credential.
func (r *RedisCredentialRepository) Load(ctx context.Context) (model.Credential, error) {
	raw, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Credential{}, ErrNotFound
		}
		return model.Credential{}, fmt.Errorf("get credential: %w", err)
	}
	return decodeCredential(raw)
}

// Save overwrites the persisted credential without expiry.
func (r *RedisCredentialRepository) Save(ctx context.Context, cred model.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set credential: %w", err)
	}
	return nil
}

// Delete removes the persisted credential.
func (r *RedisCredentialRepository) Delete(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Memory
// ────────────────────────────────────────────────────────────────────────────

// MemoryCredentialRepository keeps the credential for the process lifetime
// only.
type MemoryCredentialRepository struct {
	mu   sync.Mutex
	cred *model.Credential
}

// NewMemoryCredentialRepository creates an empty in-memory repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{}
}

func (r *MemoryCredentialRepository) Load(_ context.Context) (model.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred == nil {
		return model.Credential{}, ErrNotFound
	}
	return *r.cred, nil
}

func (r *MemoryCredentialRepository) Save(_ context.Context, cred model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = &cred
	return nil
}

func (r *MemoryCredentialRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = nil
	return nil
}
