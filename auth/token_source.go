/*
DESCRIPTION
  token_source.go provides a token source that persists refreshed tokens.

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
	"sync"

	"github.com/ausocean/utils/logging"
	"golang.org/x/oauth2"
)

// tokenNotifyFunc is a callback function signature for notifying when a token
// event happens.
type tokenNotifyFunc func(*oauth2.Token) error

// SmartTokenSource implements the TokenSource Interface, with an additional
// callback function which is called when the underlying token is refreshed.
type SmartTokenSource struct {
	mu  sync.Mutex
	src oauth2.TokenSource
	log logging.Logger

	// Callback function which is called when the token is refreshed.
	RefreshNotifyFunc tokenNotifyFunc

	// Most recent known token.
	curr *oauth2.Token
}

// NewSmartTokenSource returns a SmartTokenSource getting tokens from src,
// starting from tok. The passed refreshCallback function will be called
// whenever the token is refreshed.
func NewSmartTokenSource(src oauth2.TokenSource, tok *oauth2.Token, l logging.Logger, refreshCallback tokenNotifyFunc) *SmartTokenSource {
	return &SmartTokenSource{
		src:               src,
		log:               l,
		RefreshNotifyFunc: refreshCallback,
		curr:              tok,
	}
}

// Token returns a Token with a valid Access Token, calling the RefreshNotifyFunc
// callback if the token is refreshed.
func (s *SmartTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	// Check if the token was refreshed (or no previous access token was known).
	if s.curr == nil || s.curr.AccessToken != tok.AccessToken {
		s.curr = tok
		// The refreshed token is still returned if it could not be persisted.
		if err := s.RefreshNotifyFunc(s.curr); err != nil {
			s.log.Warning("could not save refreshed token", "error", err)
		}
	}

	return s.curr, nil
}
