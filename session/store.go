package session

import "errors"

// Storage keys shared with every console build. The names are part of the
// persisted-state contract and must not change.
const (
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
)

// ErrNotFound is returned by a Store when the key has no value.
var ErrNotFound = errors.New("session: key not found")

// Store is the persisted key/value state behind a session. Implementations
// are shared by every manager reading the same backing storage, so a login
// in one place is observed everywhere on the next read.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is an in-process Store for tests and short-lived tooling.
type MemoryStore struct {
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	delete(m.values, key)
	return nil
}
