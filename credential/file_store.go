// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDir is the directory, relative to the user's config dir, where
	// a FileStore keeps its document.
	DefaultDir = "tokenscope"

	// DefaultFile is the name of a FileStore's document.
	DefaultFile = "credentials.yaml"
)

// FileStore is a Store backed by a yaml document on the local filesystem.
// It's concurrently safe within a process.
type FileStore struct {
	path   string
	logger hclog.Logger

	mu sync.Mutex
}

// ensure that FileStore implements the Store interface
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore.  Unless WithPath is given the document
// lives at <user config dir>/tokenscope/credentials.yaml; when no user config
// dir can be resolved the store is unavailable.
//
// Supported options: WithPath, WithLogger
func NewFileStore(opt ...Option) *FileStore {
	opts := getOpts(opt...)
	s := &FileStore{
		path:   opts.withPath,
		logger: opts.withLogger.Named("file-store"),
	}
	if s.path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			s.logger.Debug("no user config dir, storage unavailable", "error", err)
			return s
		}
		s.path = filepath.Join(dir, DefaultDir, DefaultFile)
	}
	return s
}

// Path returns the location of the store's document.  It's empty when the
// store is unavailable.
func (s *FileStore) Path() string { return s.path }

// Available implements the Store interface
func (s *FileStore) Available() bool { return s.path != "" }

// Read implements the Store interface
func (s *FileStore) Read(key string) (string, bool) {
	if !s.Available() {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		s.logger.Debug("unable to read store", "path", s.path, "error", err)
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

// Write implements the Store interface
func (s *FileStore) Write(key, value string) {
	if !s.Available() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.load()
	if err != nil {
		// an unreadable document is replaced
		s.logger.Debug("unable to read store before write", "path", s.path, "error", err)
		m = map[string]string{}
	}
	m[key] = value
	if err := s.save(m); err != nil {
		s.logger.Warn("unable to write store", "path", s.path, "key", key, "error", err)
	}
}

func (s *FileStore) load() (map[string]string, error) {
	const op = "credential.(FileStore).load"
	m := map[string]string{}
	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

func (s *FileStore) save(m map[string]string) error {
	const op = "credential.(FileStore).save"
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op once renamed
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
