// Package file stores each encoding as one file in a directory.
//
// File names are the unpadded URL-safe base64 of the identifier, so any
// identifier (including "urn:" and "https://" ids) maps to a flat, portable
// name. Writes go through a temporary file and a rename.
package file

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/twinsync/internal/backend"
)

const ext = ".json"

var (
	_ backend.Adapter = (*Store)(nil)
	_ backend.Deleter = (*Store)(nil)
	_ backend.Lister  = (*Store)(nil)
)

// Store is a directory of encodings.
type Store struct {
	dir string
}

// Open returns a store rooted at dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("open file backend: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open file backend: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file that holds identifier.
func (s *Store) Path(identifier string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(identifier))+ext)
}

// Get implements backend.Adapter.
func (s *Store) Get(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(identifier))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", identifier, err)
	}
	return data, nil
}

// Put implements backend.Adapter. A reader never observes a partial file.
func (s *Store) Put(ctx context.Context, identifier string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", identifier, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", identifier, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", identifier, err)
	}
	if err := os.Rename(tmpName, s.Path(identifier)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", identifier, err)
	}
	return nil
}

// Delete implements backend.Deleter.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.Path(identifier))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", identifier, err)
	}
	return nil
}

// List implements backend.Lister. Files whose names do not decode are
// ignored.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		ids = append(ids, string(raw))
	}
	sort.Strings(ids)
	return ids, nil
}
