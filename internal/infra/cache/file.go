package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// FileStore is a write-through cache: entries live in memory and every
// Put rewrites the JSON snapshot on disk, so the cache is durable up to
// the last successful call even when the run aborts.
type FileStore struct {
	path string
	mem  *gocache.Cache

	mu sync.Mutex
}

// OpenFile loads a file-backed store from path. A missing or corrupt
// snapshot starts the store empty.
func OpenFile(path string) (*FileStore, error) {
	mem := gocache.New(gocache.NoExpiration, 0)

	data, err := os.ReadFile(path)
	if err == nil {
		var snapshot map[string]string
		if err := json.Unmarshal(data, &snapshot); err == nil {
			for key, value := range snapshot {
				mem.Set(key, value, gocache.NoExpiration)
			}
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	return &FileStore{path: path, mem: mem}, nil
}

// Get returns the cached value for key.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	value, found := s.mem.Get(key)
	if !found {
		return "", false, nil
	}
	return value.(string), true, nil
}

// Put stores value under key and persists the snapshot.
func (s *FileStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mem.Set(key, value, gocache.NoExpiration)
	return s.save()
}

func (s *FileStore) save() error {
	snapshot := make(map[string]string, s.mem.ItemCount())
	for key, item := range s.mem.Items() {
		snapshot[key] = item.Object.(string)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal cache snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}
