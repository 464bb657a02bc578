// Package tokencache persists upstream bearer tokens, encrypted at rest,
// keyed by account username. Tokens carry no TTL: validity is discovered
// lazily when the upstream rejects one, at which point the entry is deleted.
package tokencache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seatsync/seatsync/internal/crypto"
)

var (
	// ErrNotFound is returned when no token is cached for a key.
	ErrNotFound = errors.New("token not found")
)

// Store handles encrypted token persistence.
//
// The cache key is the account username alone: the upstream token is
// account-level, so accounts operating multiple restaurants share one entry.
type Store struct {
	db  *sql.DB
	key *crypto.Key
}

// NewStore creates a token cache with a SQLite backend.
func NewStore(dataDir string, key *crypto.Key) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "tokens.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, key: key}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cached_tokens (
		cache_key TEXT PRIMARY KEY,
		encrypted_token BLOB NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Get returns the decrypted token for a cache key. A missing entry returns
// ErrNotFound; an entry that fails to decrypt returns an error rather than
// garbage, and callers should treat it like a miss.
func (s *Store) Get(cacheKey string) (string, error) {
	var encrypted []byte
	err := s.db.QueryRow(
		`SELECT encrypted_token FROM cached_tokens WHERE cache_key = ?`,
		cacheKey,
	).Scan(&encrypted)

	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query token: %w", err)
	}

	plaintext, err := crypto.Decrypt(encrypted, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt cached token: %w", err)
	}
	return string(plaintext), nil
}

// Set stores a token for a cache key, overwriting any existing entry.
func (s *Store) Set(cacheKey, token string) error {
	encrypted, err := crypto.Encrypt([]byte(token), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO cached_tokens (cache_key, encrypted_token, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET encrypted_token = excluded.encrypted_token, created_at = excluded.created_at`,
		cacheKey, encrypted, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Delete removes the entry for a cache key. Deleting a missing key is a no-op.
func (s *Store) Delete(cacheKey string) error {
	if _, err := s.db.Exec(`DELETE FROM cached_tokens WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
