package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MapCollection owns one JSON file containing an object keyed by
// string, used for the user-id → liked-track-ids mapping.
type MapCollection[V any] struct {
	mu   sync.Mutex
	path string
}

// NewMapCollection creates a map collection backed by the given file.
func NewMapCollection[V any](dir, filename string) (*MapCollection[V], error) {
	if dir == "" {
		return nil, ErrEmptyDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &MapCollection[V]{path: filepath.Join(dir, filename)}, nil
}

// Load reads and unmarshals the whole map. Missing file → empty map.
func (c *MapCollection[V]) Load() (map[string]V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Mutate loads the map, applies fn and rewrites the file under the
// collection lock.
func (c *MapCollection[V]) Mutate(fn func(m map[string]V) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}
	return writeAtomic(c.path, data)
}

func (c *MapCollection[V]) load() (map[string]V, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]V{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return map[string]V{}, nil
	}

	m := map[string]V{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return m, nil
}
