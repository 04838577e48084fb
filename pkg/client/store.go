// Package client is a Go SDK for the institute API: a persisted session
// store, a typed HTTP facade over the REST surface and the navigation
// guards used by frontends embedding the SDK.
package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Fixed storage keys shared by every store implementation.
const (
	tokenKey = "institute_token"
	userKey  = "institute_user"
)

// User is the profile snapshot persisted alongside the token.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	BranchID  string `json:"branch_id,omitempty"`
	Photo     string `json:"photo,omitempty"`
}

// Listener is invoked synchronously after every session mutation.
type Listener func()

// Store persists the session token and user profile. Token and user are
// cleared together through Clear; a malformed persisted profile reads back
// as absent rather than surfacing a decode error.
type Store interface {
	SetToken(token string) error
	Token() string
	RemoveToken() error
	SetUser(user *User) error
	User() *User
	RemoveUser() error
	Clear() error
	Subscribe(l Listener)
}

// MemoryStore keeps the session in process memory. Useful for tests and
// short-lived CLI invocations.
type MemoryStore struct {
	mu        sync.Mutex
	values    map[string][]byte
	listeners []Listener
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte)}
}

func (s *MemoryStore) SetToken(token string) error {
	s.mu.Lock()
	s.values[tokenKey] = []byte(token)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.values[tokenKey])
}

func (s *MemoryStore) RemoveToken() error {
	s.mu.Lock()
	delete(s.values, tokenKey)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) SetUser(user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.values[userKey] = raw
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) User() *User {
	s.mu.Lock()
	raw, ok := s.values[userKey]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return decodeUser(raw)
}

func (s *MemoryStore) RemoveUser() error {
	s.mu.Lock()
	delete(s.values, userKey)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	delete(s.values, tokenKey)
	delete(s.values, userKey)
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *MemoryStore) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *MemoryStore) notify() {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

// FileStore persists the session under two fixed filenames in a directory.
type FileStore struct {
	mu        sync.Mutex
	dir       string
	listeners []Listener
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	err := os.WriteFile(s.path(tokenKey), []byte(token), 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *FileStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path(tokenKey))
	if err != nil {
		return ""
	}
	return string(raw)
}

func (s *FileStore) RemoveToken() error {
	s.mu.Lock()
	err := removeIfExists(s.path(tokenKey))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *FileStore) SetUser(user *User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = os.WriteFile(s.path(userKey), raw, 0o600)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *FileStore) User() *User {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path(userKey))
	s.mu.Unlock()
	if err != nil {
		return nil
	}
	return decodeUser(raw)
}

func (s *FileStore) RemoveUser() error {
	s.mu.Lock()
	err := removeIfExists(s.path(userKey))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	err := removeIfExists(s.path(tokenKey))
	if err2 := removeIfExists(s.path(userKey)); err == nil {
		err = err2
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *FileStore) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *FileStore) notify() {
	s.mu.Lock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l()
	}
}

// decodeUser treats a corrupt persisted profile as an absent session.
func decodeUser(raw []byte) *User {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
