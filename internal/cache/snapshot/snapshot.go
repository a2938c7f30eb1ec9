// Package snapshot persists extracted file facts between runs so unchanged
// files skip re-parsing. Entries are keyed by relative path and validated
// against a size+mtime fingerprint.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"cartograph/internal/scan"
	"cartograph/internal/types"
)

const dbFileName = "snapshots.db"

type Store struct {
	db *bolt.DB
}

type entry struct {
	Fingerprint string          `json:"fingerprint"`
	Facts       types.FileFacts `json:"facts"`
}

// Open creates or opens the snapshot database under dir. An empty dir
// defaults to .cartograph in the user cache directory, falling back to the
// working directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(base, "cartograph")
		} else {
			dir = ".cartograph"
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, dbFileName), 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Fingerprint identifies one observed file state.
func Fingerprint(f scan.File) string {
	return fmt.Sprintf("%d:%d", f.Size, f.ModTimeUnixNano)
}

// Get returns cached facts for f under root when the stored fingerprint
// still matches.
func (s *Store) Get(root string, f scan.File) (types.FileFacts, bool) {
	if s == nil || s.db == nil {
		return types.FileFacts{}, false
	}
	var e entry
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(root))
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(f.Rel))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if err != nil || !found || e.Fingerprint != Fingerprint(f) {
		return types.FileFacts{}, false
	}
	return e.Facts, true
}

// Put stores facts for f under root, stamped with its current fingerprint.
func (s *Store) Put(root string, f scan.File, facts types.FileFacts) error {
	if s == nil || s.db == nil {
		return nil
	}
	raw, err := json.Marshal(entry{Fingerprint: Fingerprint(f), Facts: facts})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(root))
		if err != nil {
			return err
		}
		return b.Put([]byte(f.Rel), raw)
	})
}

// Purge drops all entries recorded for root.
func (s *Store) Purge(root string) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(root)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(root))
	})
}
