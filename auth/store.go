/*
DESCRIPTION
  store.go provides the Store interface for persisting client secrets and
  OAuth2 credentials, a file backed Store, and selection of a Store by
  source address.

LICENSE
  Copyright (C) 2025 the Australian Ocean Lab (AusOcean)

  This is free software: you can redistribute it and/or modify it
  under the terms of the GNU General Public License as published by
  the Free Software Foundation, either version 3 of the License, or
  (at your option) any later version.

  It is distributed in the hope that it will be useful,
  but WITHOUT ANY WARRANTY; without even the implied warranty of
  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
  GNU General Public License for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses/.
*/

package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/ytupload/upload"
)

// Source address prefixes.
const (
	passPrefix   = "pass:"
	bucketPrefix = "gs://"
)

// Store loads and saves a single secret blob, such as client secrets or
// an OAuth2 token. Load returns an error satisfying errors.As with
// *upload.NotFoundError if the blob does not exist.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
	String() string
}

// NewStore returns the Store for src. Sources of the form "pass:<key>"
// select a PassStore rooted at cfg.PasswordStoreDir, "gs://bucket/object"
// selects a BucketStore, and anything else is a file path.
func NewStore(src string, cfg Config) (Store, error) {
	switch {
	case src == "":
		return nil, errors.New("empty store source")
	case strings.HasPrefix(src, passPrefix):
		return NewPassStore(strings.TrimPrefix(src, passPrefix), cfg.PasswordStoreDir, nil)
	case strings.HasPrefix(src, bucketPrefix):
		return NewBucketStore(src)
	default:
		return &FileStore{Path: src}, nil
	}
}

// FileStore is a Store backed by a file.
type FileStore struct {
	Path string
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &upload.NotFoundError{What: "file", Name: s.Path, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	return b, nil
}

// Save implements Store. The parent directory is created if needed and
// the file is readable only by its owner.
func (s *FileStore) Save(ctx context.Context, data []byte) error {
	err := os.MkdirAll(filepath.Dir(s.Path), 0700)
	if err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("could not open file: %w", err)
	}
	_, err = f.Write(data)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not write file: %w", err)
	}
	return f.Close()
}

// Delete implements Store. Deleting a file that does not exist is not an
// error.
func (s *FileStore) Delete(ctx context.Context) error {
	err := os.Remove(s.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove file: %w", err)
	}
	return nil
}

func (s *FileStore) String() string { return s.Path }

// Exists reports whether the blob of s exists, without reading it.
func Exists(ctx context.Context, s Store) (bool, error) {
	type checker interface {
		exists(ctx context.Context) (bool, error)
	}
	if c, ok := s.(checker); ok {
		return c.exists(ctx)
	}
	_, err := s.Load(ctx)
	var nf *upload.NotFoundError
	if errors.As(err, &nf) {
		return false, nil
	}
	return err == nil, err
}

func (s *FileStore) exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
