/*
DESCRIPTION
  provider.go provides authorised HTTP clients and YouTube services using
  stored OAuth2 client secrets and credentials, running the interactive
  authorisation flow when no valid credentials are stored.

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

// Package auth provides OAuth2 authorisation for the YouTube Data API,
// with client secrets and credentials kept in files, pass entries or
// Google Storage bucket objects.
package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ausocean/utils/logging"
	"github.com/ausocean/ytupload/upload"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/term"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Scopes are the OAuth2 scopes requested for uploading and managing videos
// and playlists.
var Scopes = []string{youtube.YoutubeUploadScope, youtube.YoutubeScope}

// ErrNotInteractive is returned when authorisation is required but
// prompting is disabled.
var ErrNotInteractive = errors.New("no valid credentials and interactive authorisation is disabled")

const authState = "state-token"

// AuthError is returned when no valid credentials could be obtained.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorisation failed: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderOption is a functional option type for configuring a Provider.
type ProviderOption func(*Provider) error

// WithPrompt enables interactive authorisation. The authorisation URL is
// written to out and the authorisation code read from in. If in is a
// terminal the code is not echoed.
func WithPrompt(in io.Reader, out io.Writer) ProviderOption {
	return func(p *Provider) error {
		if in == nil || out == nil {
			return errors.New("prompt reader and writer must not be nil")
		}
		p.in = in
		p.out = out
		return nil
	}
}

// Provider provides authorised clients for the YouTube Data API.
type Provider struct {
	secrets Store
	creds   Store
	log     logging.Logger
	in      io.Reader
	out     io.Writer
}

// NewProvider returns a Provider that reads client secrets from secrets
// and keeps credentials in creds.
func NewProvider(secrets, creds Store, l logging.Logger, opts ...ProviderOption) (*Provider, error) {
	if secrets == nil || creds == nil {
		return nil, errors.New("secrets and credentials stores must not be nil")
	}
	p := &Provider{secrets: secrets, creds: creds, log: l}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return p, nil
}

// Config returns the OAuth2 configuration given by the client secrets.
func (p *Provider) Config(ctx context.Context) (*oauth2.Config, error) {
	secrets, err := p.secrets.Load(ctx)
	if err != nil {
		return nil, &AuthError{Op: "load client secrets", Err: err}
	}
	cfg, err := google.ConfigFromJSON(secrets, Scopes...)
	if err != nil {
		return nil, &AuthError{Op: "parse client secrets", Err: err}
	}
	return cfg, nil
}

// TokenSource returns a token source using the stored credentials, or new
// credentials from interactive authorisation if the stored ones are
// missing or can no longer be refreshed. New and refreshed tokens are
// saved to the credentials store.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := p.Config(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := p.loadToken(ctx)
	var nf *upload.NotFoundError
	switch {
	case err == nil:
		ts := NewSmartTokenSource(cfg.TokenSource(ctx, tok), tok, p.log, p.saveFunc(ctx))
		_, err = ts.Token()
		if err == nil {
			p.log.Debug("using stored credentials", "store", p.creds.String())
			return ts, nil
		}
		p.log.Warning("stored credentials are invalid", "store", p.creds.String(), "error", err)
	case errors.As(err, &nf):
		p.log.Info("no stored credentials", "store", p.creds.String())
	case errors.Is(err, errBadToken):
		p.log.Warning("could not decode stored credentials", "store", p.creds.String(), "error", err)
	default:
		return nil, &AuthError{Op: "load credentials", Err: err}
	}

	tok, err = p.authorise(ctx, cfg)
	if err != nil {
		return nil, &AuthError{Op: "authorise", Err: err}
	}
	err = p.saveFunc(ctx)(tok)
	if err != nil {
		return nil, &AuthError{Op: "save credentials", Err: err}
	}
	return NewSmartTokenSource(cfg.TokenSource(ctx, tok), tok, p.log, p.saveFunc(ctx)), nil
}

// Client returns an HTTP client authorised with the provider's
// credentials.
func (p *Provider) Client(ctx context.Context) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Service returns a YouTube service using the HTTP client hc, typically
// one returned by Client. Further options, e.g. option.WithEndpoint, are
// applied after hc.
func Service(ctx context.Context, hc *http.Client, opts ...option.ClientOption) (*youtube.Service, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("could not create youtube service: %w", err)
	}
	return svc, nil
}

var errBadToken = errors.New("bad token")

func (p *Provider) loadToken(ctx context.Context) (*oauth2.Token, error) {
	b, err := p.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	err = json.Unmarshal(b, tok)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadToken, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no access or refresh token", errBadToken)
	}
	return tok, nil
}

func (p *Provider) saveFunc(ctx context.Context) tokenNotifyFunc {
	return func(tok *oauth2.Token) error {
		b, err := json.Marshal(tok)
		if err != nil {
			return fmt.Errorf("could not encode token: %w", err)
		}
		err = p.creds.Save(ctx, b)
		if err != nil {
			return err
		}
		p.log.Info("saved credentials", "store", p.creds.String())
		return nil
	}
}

// authorise runs the authorisation code flow, asking the user to visit the
// authorisation URL and paste the resulting code.
func (p *Provider) authorise(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	if p.in == nil {
		return nil, ErrNotInteractive
	}

	url := cfg.AuthCodeURL(authState, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(p.out, "Go to the following link in your browser, then paste the authorisation code:\n%s\n", url)
	fmt.Fprint(p.out, "Authorisation code (won't be echoed): ")

	code, err := p.readCode()
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("could not read authorisation code: %w", err)
	}
	if code == "" {
		return nil, errors.New("empty authorisation code")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorisation code: %w", err)
	}
	return tok, nil
}

func (p *Provider) readCode() (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return strings.TrimSpace(string(b)), err
	}
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
