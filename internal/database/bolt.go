package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-certify/internal/config"
	bolt "go.etcd.io/bbolt"
)

// boltOpenTimeout bounds the wait for the file lock held by another process.
const boltOpenTimeout = 2 * time.Second

// NewBoltDB opens (creating if needed) the local credential file and ensures
// its bucket exists.
func NewBoltDB(cfg *config.Config, log zerolog.Logger) (*bolt.DB, error) {
	if dir := filepath.Dir(cfg.CredentialPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create credential dir: %w", err)
		}
	}

	db, err := bolt.Open(cfg.CredentialPath, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(config.CacheKey.CredentialBucket())
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create credential bucket: %w", err)
	}

	log.Debug().
		Str("path", cfg.CredentialPath).
		Msg("Credential file opened")

	return db, nil
}
