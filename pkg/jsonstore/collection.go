// Package jsonstore persists whole collections as flat JSON files.
// Every mutation reads the file, applies the change in memory and
// rewrites the entire file. A per-collection mutex keeps writers
// serialized within the process; there is no cross-process coordination
// and no transaction boundary beyond a single file rewrite.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config holds storage configuration shared by all collections.
type Config struct {
	// DataDir is the directory holding the JSON collection files.
	DataDir string `env:"DATA_DIR" envDefault:"./data"`
}

// Collection owns one JSON file containing an array of T.
type Collection[T any] struct {
	mu   sync.Mutex
	path string
}

// NewCollection creates a collection backed by the given file. The
// parent directory is created if missing; the file itself is created
// lazily on first save.
func NewCollection[T any](dir, filename string) (*Collection[T], error) {
	if dir == "" {
		return nil, ErrEmptyDataDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Collection[T]{path: filepath.Join(dir, filename)}, nil
}

// Load reads and unmarshals the whole collection. A missing file is an
// empty collection, not an error.
func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Save marshals and rewrites the whole collection.
func (c *Collection[T]) Save(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(items)
}

// Mutate loads the collection, applies fn and saves the result while
// holding the collection lock. This is the single-writer discipline:
// concurrent mutations of the same collection cannot lose updates
// within one process.
func (c *Collection[T]) Mutate(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.save(items)
}

func (c *Collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.path, err)
	}
	return items, nil
}

func (c *Collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}
	return writeAtomic(c.path, data)
}

// writeAtomic writes through a temp file and rename so a crashed write
// never leaves a truncated collection behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
