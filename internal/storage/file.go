package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File stores each collection as <dir>/<collection>.json. Saves write to a
// temporary file in the same directory and rename it over the target, so
// readers always observe either the previous or the new document.
type File struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &File{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (f *File) Load(_ context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(f.path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: "load", Collection: collection, Err: err}
	}
	return data, nil
}

func (f *File) Save(_ context.Context, collection string, data []byte) error {
	lock := f.lock(collection)
	lock.Lock()
	defer lock.Unlock()

	target := f.path(collection)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &Error{Op: "save", Collection: collection, Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return &Error{Op: "save", Collection: collection, Err: err}
	}
	return nil
}

// lock returns the single writer lock for a collection.
func (f *File) lock(collection string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		f.locks[collection] = l
	}
	return l
}

func (f *File) path(collection string) string {
	return filepath.Join(f.dir, collection+".json")
}
