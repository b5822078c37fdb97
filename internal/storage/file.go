package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps every key in one JSON document. A key "section/name" is
// stored as document[section][name], so day buckets end up under
// {"data": {"2024-01-01": [...]}} next to {"managers": [...]}.
//
// Writes go to a temp file in the same directory which then replaces the
// document, so a failed write never leaves a truncated file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("file store: create dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	section, name, nested := strings.Cut(key, "/")
	raw, ok := doc[section]
	if !ok {
		return nil, ErrNotFound
	}
	if !nested {
		return raw, nil
	}
	var sub map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, Unavailable("file store: decode section "+section, err)
	}
	v, ok := sub[name]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Save(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("file store: value for %q is not valid JSON", key)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	section, name, nested := strings.Cut(key, "/")
	if !nested {
		doc[section] = json.RawMessage(value)
	} else {
		sub := map[string]json.RawMessage{}
		if raw, ok := doc[section]; ok {
			if err := json.Unmarshal(raw, &sub); err != nil {
				return Unavailable("file store: decode section "+section, err)
			}
		}
		sub[name] = json.RawMessage(value)
		b, err := json.Marshal(sub)
		if err != nil {
			return err
		}
		doc[section] = b
	}
	return f.write(doc)
}

func (f *FileStore) read() (map[string]json.RawMessage, error) {
	doc := map[string]json.RawMessage{}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return nil, Unavailable("file store: read", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, Unavailable("file store: decode "+f.path, err)
	}
	return doc, nil
}

func (f *FileStore) write(doc map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return Unavailable("file store: create temp", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return Unavailable("file store: write", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Unavailable("file store: sync", err)
	}
	if err := tmp.Close(); err != nil {
		return Unavailable("file store: close", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return Unavailable("file store: replace", err)
	}
	return nil
}
