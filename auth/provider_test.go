/*
DESCRIPTION
  provider_test.go tests loading, refreshing and interactive creation of
  credentials against a fake OAuth2 token endpoint.

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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/ytupload/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// tokenEndpoint is a fake OAuth2 token endpoint.
type tokenEndpoint struct {
	mu       sync.Mutex
	grants   []string
	codes    []string
	rejected bool
}

func (e *tokenEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r.ParseForm()
	grant := r.PostForm.Get("grant_type")
	e.grants = append(e.grants, grant)
	if grant == "authorization_code" {
		e.codes = append(e.codes, r.PostForm.Get("code"))
	}
	w.Header().Set("Content-Type", "application/json")
	if e.rejected {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
		return
	}
	fmt.Fprintf(w, `{"access_token":"new-%d","token_type":"Bearer","refresh_token":"refresh","expires_in":3600}`, len(e.grants))
}

func newTestStores(t *testing.T, tokenURL string) (secrets, creds *FileStore) {
	dir := t.TempDir()
	secrets = &FileStore{Path: filepath.Join(dir, ClientSecretsFile)}
	creds = &FileStore{Path: filepath.Join(dir, CredentialsFile)}
	b := fmt.Sprintf(`{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.example.com/auth","token_uri":%q,"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, secrets.Save(context.Background(), []byte(b)))
	return secrets, creds
}

func saveToken(t *testing.T, s Store, tok *oauth2.Token) {
	b, err := json.Marshal(tok)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), b))
}

func storedToken(t *testing.T, s Store) *oauth2.Token {
	b, err := s.Load(context.Background())
	require.NoError(t, err)
	var tok oauth2.Token
	require.NoError(t, json.Unmarshal(b, &tok))
	return &tok
}

func newTestEndpoint(t *testing.T) (*tokenEndpoint, *httptest.Server) {
	e := &tokenEndpoint{}
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return e, srv
}

func TestProviderStoredToken(t *testing.T) {
	e, srv := newTestEndpoint(t)
	secrets, creds := newTestStores(t, srv.URL)
	saveToken(t, creds, &oauth2.Token{AccessToken: "stored", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)})

	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t))
	require.NoError(t, err)
	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "stored", tok.AccessToken)
	assert.Empty(t, e.grants, "a valid token should not be refreshed")
}

func TestProviderRefreshSaved(t *testing.T) {
	e, srv := newTestEndpoint(t)
	secrets, creds := newTestStores(t, srv.URL)
	saveToken(t, creds, &oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)})

	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t))
	require.NoError(t, err)
	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new-1", tok.AccessToken)
	assert.Equal(t, []string{"refresh_token"}, e.grants)
	assert.Equal(t, "new-1", storedToken(t, creds).AccessToken, "refreshed token should be saved")
}

func TestProviderNotInteractive(t *testing.T) {
	_, srv := newTestEndpoint(t)
	secrets, creds := newTestStores(t, srv.URL)

	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t))
	require.NoError(t, err)
	_, err = p.Client(context.Background())

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestProviderInteractive(t *testing.T) {
	e, srv := newTestEndpoint(t)
	secrets, creds := newTestStores(t, srv.URL)

	var out bytes.Buffer
	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t), WithPrompt(strings.NewReader("the-code\n"), &out))
	require.NoError(t, err)
	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new-1", tok.AccessToken)
	assert.Equal(t, []string{"the-code"}, e.codes)
	assert.Contains(t, out.String(), "https://accounts.example.com/auth?")
	assert.Contains(t, out.String(), "access_type=offline")
	assert.Equal(t, "new-1", storedToken(t, creds).AccessToken, "new token should be saved")
}

func TestProviderRevokedToken(t *testing.T) {
	e, srv := newTestEndpoint(t)
	e.rejected = true
	secrets, creds := newTestStores(t, srv.URL)
	saveToken(t, creds, &oauth2.Token{AccessToken: "stale", RefreshToken: "revoked", Expiry: time.Now().Add(-time.Hour)})

	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t))
	require.NoError(t, err)
	_, err = p.TokenSource(context.Background())
	assert.ErrorIs(t, err, ErrNotInteractive, "a token that cannot be refreshed requires authorisation")
}

func TestProviderMissingSecrets(t *testing.T) {
	dir := t.TempDir()
	p, err := NewProvider(
		&FileStore{Path: filepath.Join(dir, ClientSecretsFile)},
		&FileStore{Path: filepath.Join(dir, CredentialsFile)},
		(*logging.TestLogger)(t),
	)
	require.NoError(t, err)

	_, err = p.TokenSource(context.Background())
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	var nf *upload.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProviderCorruptCredentials(t *testing.T) {
	_, srv := newTestEndpoint(t)
	secrets, creds := newTestStores(t, srv.URL)
	require.NoError(t, creds.Save(context.Background(), []byte("not json")))

	var out bytes.Buffer
	p, err := NewProvider(secrets, creds, (*logging.TestLogger)(t), WithPrompt(strings.NewReader("code"), &out))
	require.NoError(t, err)
	ts, err := p.TokenSource(context.Background())
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new-1", tok.AccessToken)
}
