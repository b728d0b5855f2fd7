/*
DESCRIPTION
  pass.go provides a Store backed by an entry of the pass password
  manager.

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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ausocean/ytupload/upload"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
)

const passCmd = "pass"

// PassStore is a Store backed by a pass entry. Entries are encrypted
// files named <key>.gpg under the password store directory.
type PassStore struct {
	key     string
	dir     string
	factory command.Factory
}

// NewPassStore returns a PassStore for the entry key of the password store
// rooted at dir. If factory is nil commands are run with the process
// environment.
func NewPassStore(key, dir string, factory command.Factory) (*PassStore, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return nil, errors.New("empty pass key")
	}
	if dir == "" {
		return nil, errors.New("password store directory not set")
	}
	if factory == nil {
		factory = command.NewFactory(env.NewRepository())
	}
	return &PassStore{key: key, dir: dir, factory: factory}, nil
}

// Load implements Store.
func (s *PassStore) Load(ctx context.Context) ([]byte, error) {
	ok, err := s.exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &upload.NotFoundError{What: "pass entry", Name: s.key}
	}
	out, err := s.run(nil, s.key)
	if err != nil {
		return nil, fmt.Errorf("could not read pass entry %s: %w", s.key, err)
	}
	return []byte(out), nil
}

// Save implements Store, replacing any existing entry.
func (s *PassStore) Save(ctx context.Context, data []byte) error {
	_, err := s.run(bytes.NewReader(data), "insert", "--multiline", "--force", s.key)
	if err != nil {
		return fmt.Errorf("could not write pass entry %s: %w", s.key, err)
	}
	return nil
}

// Delete implements Store. Deleting an entry that does not exist is not
// an error.
func (s *PassStore) Delete(ctx context.Context) error {
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return err
	}
	_, err = s.run(nil, "rm", "--force", s.key)
	if err != nil {
		return fmt.Errorf("could not remove pass entry %s: %w", s.key, err)
	}
	return nil
}

func (s *PassStore) String() string { return passPrefix + s.key }

func (s *PassStore) exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, s.key+".gpg"))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not check pass entry: %w", err)
	}
	return true, nil
}

// run runs pass with args and returns its trimmed standard output. The
// combined output is included in the error if pass fails.
func (s *PassStore) run(stdin *bytes.Reader, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	opts := &command.Opts{
		Stdout: &stdout,
		Stderr: &stderr,
		Env:    []string{envPasswordStore + "=" + s.dir},
	}
	if stdin != nil {
		opts.Stdin = stdin
	}
	cmd := s.factory.Create(passCmd, args, opts)
	err := cmd.Run()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", cmd.PrintableCommandArgs(), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
