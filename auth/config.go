/*
DESCRIPTION
  config.go provides the locations of stored client secrets and
  credentials, taken from the environment.

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
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/env"
)

// Environment variables.
const (
	envHome          = "HOME"
	envDataHome      = "XDG_DATA_HOME"
	envPasswordStore = "PASSWORD_STORE_DIR"
)

// Default file names within the data directory.
const (
	ClientSecretsFile = "client_secrets.json"
	CredentialsFile   = "credentials.json"
	LogFile           = "ytupload.log"
)

const appDir = "yt-upload"

// Config holds the directories used to find stored secrets.
type Config struct {
	// DataDir holds the default client secrets and credentials files, and
	// the log file.
	DataDir string

	// PasswordStoreDir is the root of the password store used by pass.
	PasswordStoreDir string
}

// NewConfig returns the Config given by the environment in r. The data
// directory is yt-upload under $XDG_DATA_HOME, or ~/.local/share if that
// is unset. The password store is $PASSWORD_STORE_DIR, or ~/.password-store.
func NewConfig(r env.Repository) Config {
	home := r.Get(envHome)

	dataHome := r.Get(envDataHome)
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	passDir := r.Get(envPasswordStore)
	if passDir == "" {
		passDir = filepath.Join(home, ".password-store")
	}

	return Config{
		DataDir:          filepath.Join(dataHome, appDir),
		PasswordStoreDir: passDir,
	}
}

// ClientSecretsPath returns the default client secrets file.
func (c Config) ClientSecretsPath() string { return filepath.Join(c.DataDir, ClientSecretsFile) }

// CredentialsPath returns the default credentials file.
func (c Config) CredentialsPath() string { return filepath.Join(c.DataDir, CredentialsFile) }

// LogPath returns the log file.
func (c Config) LogPath() string { return filepath.Join(c.DataDir, LogFile) }
