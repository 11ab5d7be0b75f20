// Package prefs is lovary's persistent key/value storage.
// Values are stored as a flat TOML table in ~/.config/lovary/state.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Well-known keys.
const (
	TokenKey = "token"
	ThemeKey = "theme"
)

const (
	defaultStatePath = "~/.config/lovary/state.toml"
	defaultTheme     = "Nightfox"
)

// Storage is a string key/value store that survives restarts.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

var (
	_ Storage = (*FileStore)(nil)
	_ Storage = (*MemoryStore)(nil)
)

// DefaultPath returns the default state file path.
func DefaultPath() string {
	return defaultStatePath
}

// FileStore persists values in a TOML file. Every Get reads the file again so
// changes made by other processes are observed immediately.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// errMalformed marks a state file that exists but does not parse.
var errMalformed = errors.New("malformed state file")

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used to report state file recovery.
func WithLogger(logger *zap.Logger) FileStoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore returns a store backed by path; an empty path uses DefaultPath.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	s := &FileStore{path: resolved, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the resolved file location.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key. Unreadable or malformed files are
// treated as empty.
func (s *FileStore) Get(key string) (string, bool) {
	values, err := s.read()
	if err != nil {
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

// Set stores value under key. A malformed file is moved aside to
// BackupPath before being replaced; a file that cannot be read is an error.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readForUpdate()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Remove deletes key. Removing a missing key is not an error.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readForUpdate()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	values := map[string]string{}
	if err := toml.Unmarshal(bytes, &values); err != nil {
		return nil, fmt.Errorf("parse state: %w: %w", errMalformed, err)
	}
	return values, nil
}

// BackupPath is where a malformed state file is kept before it is replaced.
func (s *FileStore) BackupPath() string {
	return s.path + ".bad"
}

// readForUpdate is read for callers about to rewrite the file.
func (s *FileStore) readForUpdate() (map[string]string, error) {
	values, err := s.read()
	if err == nil {
		return values, nil
	}
	if !errors.Is(err, errMalformed) {
		return nil, err
	}
	if rerr := os.Rename(s.path, s.BackupPath()); rerr != nil {
		return nil, fmt.Errorf("back up state: %w", rerr)
	}
	s.logger.Warn("state file malformed, starting fresh",
		zap.String("path", s.path),
		zap.String("backup", s.BackupPath()),
		zap.Error(err),
	)
	return map[string]string{}, nil
}

func (s *FileStore) write(values map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	bytes, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.toml")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// MemoryStore keeps values in memory only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Token returns the persisted session token, or "" when absent.
func Token(s Storage) string {
	if s == nil {
		return ""
	}
	v, _ := s.Get(TokenKey)
	return strings.TrimSpace(v)
}

// Theme returns the persisted theme name, falling back to the default.
func Theme(s Storage) string {
	if s == nil {
		return defaultTheme
	}
	v, ok := s.Get(ThemeKey)
	if !ok || strings.TrimSpace(v) == "" {
		return defaultTheme
	}
	return v
}

// SaveTheme persists the theme name.
func SaveTheme(s Storage, name string) error {
	if s == nil {
		return nil
	}
	return s.Set(ThemeKey, name)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultStatePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
