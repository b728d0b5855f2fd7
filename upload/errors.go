/*
DESCRIPTION
  errors.go provides the error types returned by the upload driver and its
  transports.

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

package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// Exported error values.
var (
	ErrUploadExhausted  = errors.New("upload retries exhausted")
	ErrProtocol         = errors.New("resumable upload protocol violation")
	ErrSessionLost      = errors.New("remote session lost acknowledged bytes")
	ErrInvalidParameter = errors.New("invalid upload parameter")
)

// ExhaustedError is returned when every whole-session attempt failed
// without the remote endpoint reporting completion.
type ExhaustedError struct {
	Path    string
	Retries int
	Err     error // The error from the final attempt.
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not upload file %q, ran into too many errors (%d): %v", e.Path, e.Retries, e.Err)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrUploadExhausted }

func (e *ExhaustedError) Unwrap() error { return e.Err }

// NotFoundError indicates a file or stored secret needed for the upload
// does not exist.
type NotFoundError struct {
	What string
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ChunkError classifies a failed request against the resumable endpoint.
// Status is the HTTP status code of the final response, or zero if no
// response was received.
type ChunkError struct {
	Op     string
	Status int
	Err    error
}

func (e *ChunkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Temporary reports whether the failure may succeed if tried again, i.e.
// the request never got a response, or the server asked us to try later.
// A 501 is never temporary, matching the transport's retry policy.
func (e *ChunkError) Temporary() bool {
	switch {
	case errors.Is(e.Err, ErrProtocol), errors.Is(e.Err, ErrSessionLost):
		return false
	case e.Status == http.StatusNotImplemented:
		return false
	case e.Status == 0,
		e.Status >= http.StatusInternalServerError,
		e.Status == http.StatusRequestTimeout,
		e.Status == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// permanent reports whether err cannot succeed on a later attempt against
// the same session.
func permanent(err error) bool {
	if errors.Is(err, ErrProtocol) || errors.Is(err, ErrSessionLost) {
		return true
	}
	var ce *ChunkError
	return errors.As(err, &ce) && !ce.Temporary()
}
