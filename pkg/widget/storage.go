package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Backend is the raw key/value store behind Storage, the equivalent of browser local storage.
type Backend interface {
	Read(key string) (value string, found bool, err error)
	Write(key, value string) error
	Remove(key string) error
}

// MemoryBackend keeps values in process memory
type MemoryBackend struct {
	items map[string]string
	mutex sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string]string)}
}

func (m *MemoryBackend) Read(key string) (string, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, found := m.items[key]
	return value, found, nil
}

func (m *MemoryBackend) Write(key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.items[key] = value
	return nil
}

func (m *MemoryBackend) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.items, key)
	return nil
}

// errCorruptFile marks a profile file that is not a JSON object
var errCorruptFile = errors.New("corrupt storage file")

// FileBackend persists all keys in a single JSON object on disk.
// Writes go through a temp file and rename so a crash never leaves a torn file.
type FileBackend struct {
	path  string
	mutex sync.Mutex
}

// NewFileBackend creates a backend stored at path; the file is created on first write
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Read(key string) (string, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	items, err := f.load()
	if err != nil {
		return "", false, err
	}
	value, found := items[key]
	return value, found, nil
}

func (f *FileBackend) Write(key, value string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	items, _, err := f.loadForUpdate()
	if err != nil {
		return err
	}
	items[key] = value
	return f.save(items)
}

func (f *FileBackend) Remove(key string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	items, reset, err := f.loadForUpdate()
	if err != nil {
		return err
	}
	if _, found := items[key]; !found && !reset {
		return nil
	}
	delete(items, key)
	return f.save(items)
}

func (f *FileBackend) load() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %v", f.path, errCorruptFile, err)
	}
	return items, nil
}

// loadForUpdate is load for writers: a corrupt file is replaced by an empty one
// instead of blocking every later write.
func (f *FileBackend) loadForUpdate() (items map[string]string, reset bool, err error) {
	items, err = f.load()
	if errors.Is(err, errCorruptFile) {
		return make(map[string]string), true, nil
	}
	return items, false, err
}

func (f *FileBackend) save(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}

type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expiresAt"`
}

// Storage is a key/value store with a per-key absolute expiry.
// Backend failures never reach the caller: reads report absent and writes become no-ops.
type Storage struct {
	backend Backend
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewStorage wraps a backend. A nil logger discards log output.
func NewStorage(backend Backend, logger logrus.FieldLogger) *Storage {
	if logger == nil {
		logger = nopLogger()
	}
	return &Storage{backend: backend, logger: logger, now: time.Now}
}

// Set stores value with an expiry of ttlDays from now
func (s *Storage) Set(key string, value any, ttlDays int) {
	s.SetUntil(key, value, s.now().AddDate(0, 0, ttlDays))
}

// SetUntil stores value with an absolute expiry
func (s *Storage) SetUntil(key string, value any, expiresAt time.Time) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.warn(&StorageError{Op: "encode", Key: key, Err: err})
		return
	}
	data, err := json.Marshal(envelope{Value: raw, ExpiresAt: expiresAt.UnixMilli()})
	if err != nil {
		s.warn(&StorageError{Op: "encode", Key: key, Err: err})
		return
	}
	if err := s.backend.Write(key, string(data)); err != nil {
		s.warn(&StorageError{Op: "write", Key: key, Err: err})
	}
}

// Get decodes the stored value into dest. It returns false when the key is absent,
// expired, unreadable or corrupt; expired and corrupt entries are removed.
func (s *Storage) Get(key string, dest any) bool {
	data, found, err := s.backend.Read(key)
	if err != nil {
		s.warn(&StorageError{Op: "read", Key: key, Err: err})
		return false
	}
	if !found {
		return false
	}

	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil || len(env.Value) == 0 {
		s.logger.WithField("key", key).Debug("Discarding corrupt storage entry")
		s.Delete(key)
		return false
	}
	if s.now().UnixMilli() >= env.ExpiresAt {
		s.logger.WithField("key", key).Debug("Storage entry expired")
		s.Delete(key)
		return false
	}
	if err := json.Unmarshal(env.Value, dest); err != nil {
		s.logger.WithField("key", key).Debug("Discarding undecodable storage entry")
		s.Delete(key)
		return false
	}
	return true
}

// Delete removes key unconditionally
func (s *Storage) Delete(key string) {
	if err := s.backend.Remove(key); err != nil {
		s.warn(&StorageError{Op: "delete", Key: key, Err: err})
	}
}

func (s *Storage) warn(err *StorageError) {
	s.logger.WithError(err).WithField("key", err.Key).Warn("Local storage unavailable")
}

func nopLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
