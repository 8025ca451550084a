package session

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mylpd15/inventory-console/security"
)

// SQLiteStore persists session state in a local sqlite database, the
// console's stand-in for browser localStorage. The access token is encrypted
// at rest when a cipher is supplied.
type SQLiteStore struct {
	db     *sql.DB
	cipher *security.Cipher
}

// OpenSQLiteStore opens (or creates) the session database at path. Use
// ":memory:" for tests.
func OpenSQLiteStore(path string, cipher *security.Cipher) (*SQLiteStore, error) {
	// Connection parameters to better handle concurrent console invocations.
	dsn := path + "?_journal=WAL&_timeout=10000&_busy_timeout=10000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 5)

	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, err
	}

	createTable := `
	CREATE TABLE IF NOT EXISTS session_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, cipher: cipher}, nil
}

func (s *SQLiteStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if s.cipher != nil && key == KeyAccessToken {
		return s.cipher.Decrypt(value)
	}
	return value, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	if s.cipher != nil && key == KeyAccessToken {
		encrypted, err := s.cipher.Encrypt(value)
		if err != nil {
			return err
		}
		value = encrypted
	}
	_, err := s.db.Exec(`
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM session_state WHERE key = ?", key)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
