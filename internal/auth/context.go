package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store persists the raw access token between runs.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryStore keeps the token for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save("")
}

// FileStore keeps the token in a file readable only by the current user.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Context is the explicit credential context shared by every API call.
// It caches the token in memory and writes through to its Store.
type Context struct {
	store Store

	mu     sync.RWMutex
	token  string
	loaded bool
}

func NewContext(store Store) *Context {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Context{store: store}
}

// Token returns the stored credential, or "" when signed out.
func (c *Context) Token() string {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.token
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		token, err := c.store.Load()
		if err == nil {
			c.token = token
		}
		c.loaded = true
	}
	return c.token
}

func (c *Context) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(token); err != nil {
		return err
	}
	c.token = token
	c.loaded = true
	return nil
}

func (c *Context) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.loaded = true
	return c.store.Clear()
}

// Authenticated reports whether a usable credential is present at now.
// JWTs carrying an exp claim in the past are treated as signed out; the
// signature is not checked here.
func (c *Context) Authenticated(now time.Time) bool {
	token := c.Token()
	if token == "" {
		return false
	}
	exp, ok := expiry(token)
	if !ok {
		return true
	}
	return now.Before(exp)
}

func expiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
