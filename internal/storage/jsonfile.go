// Package storage persists marketplace records as JSON arrays, one file per
// entity, and implements the repository contracts on top of them.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ErrCorrupt is returned when a data file exists but does not hold a JSON array.
var ErrCorrupt = errors.New("storage: file is not a JSON array")

// ErrUnchanged can be returned from a Collection.Update callback to skip the write.
var ErrUnchanged = errors.New("storage: nothing to write")

// ReadList returns the array stored at path. A missing file is an empty list.
func ReadList[T any](path string) ([]T, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// ReadListOrEmpty is ReadList for data that is safe to lose: any failure is
// logged and an empty list returned.
func ReadListOrEmpty[T any](path string) []T {
	items, err := ReadList[T](path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("treating unreadable data file as empty")
		return []T{}
	}
	return items
}

// WriteList stores items at path as indented JSON. Parent directories are
// created and the file is replaced atomically.
func WriteList[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0640); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Collection serialises read-modify-write cycles on one file within the
// process. It does not guard against other processes.
type Collection[T any] struct {
	path string
	mu   sync.Mutex
}

func NewCollection[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

func (c *Collection[T]) Path() string {
	return c.path
}

func (c *Collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ReadList[T](c.path)
}

// Update loads the list, passes it to fn and writes back what fn returns.
// A corrupt file is never overwritten. If fn returns ErrUnchanged nothing is
// written and Update returns nil.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := ReadList[T](c.path)
	if err != nil {
		return err
	}

	items, err = fn(items)
	if errors.Is(err, ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	return WriteList(c.path, items)
}
