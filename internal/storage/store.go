package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotFound is returned when opening an audio object that does not exist.
var ErrNotFound = errors.New("audio object not found")

// Store persists uploaded audio objects and serves them back for playback.
// Implementations can be on-disk or in-memory.
type Store interface {
	// Save writes the object under filename, replacing any previous content.
	Save(filename string, data []byte) error

	// Open returns a seekable reader for filename plus its modification
	// time, as needed for range-aware serving.
	Open(filename string) (io.ReadSeekCloser, time.Time, error)

	// Count reports how many objects are stored. Used for metrics.
	Count() int
}

// DiskStore keeps audio objects as files under one directory.
type DiskStore struct {
	dir string
}

// NewDiskStore returns a DiskStore rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Save implements Store.Save.
func (s *DiskStore) Save(filename string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, filename), data, 0o644)
}

// Open implements Store.Open.
func (s *DiskStore) Open(filename string) (io.ReadSeekCloser, time.Time, error) {
	f, err := os.Open(filepath.Join(s.dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, time.Time{}, ErrNotFound
		}
		return nil, time.Time{}, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, err
	}
	return f, info.ModTime(), nil
}

// Count implements Store.Count.
func (s *DiskStore) Count() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n
}

// MemoryStore is an in-memory Store, used in tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	saved   map[string]time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		saved:   make(map[string]time.Time),
	}
}

// Save implements Store.Save.
func (s *MemoryStore) Save(filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[filename] = buf
	s.saved[filename] = time.Now().UTC()
	return nil
}

// Open implements Store.Open.
func (s *MemoryStore) Open(filename string) (io.ReadSeekCloser, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[filename]
	if !ok {
		return nil, time.Time{}, ErrNotFound
	}
	return nopCloser{bytes.NewReader(data)}, s.saved[filename], nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
