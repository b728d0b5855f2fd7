/*
DESCRIPTION
  driver.go provides the Driver, which uploads a file to a resumable upload
  endpoint in fixed-size chunks, reporting progress and retrying failed
  attempts against the same remote session.

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

// Package upload provides a driver for chunked, resumable uploads of video
// files, and a transport implementing the YouTube resumable upload protocol.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/docker/go-units"
)

// Driver defaults.
const (
	DefaultChunkSize  = 8 * units.MiB
	DefaultMaxRetries = 3
	DefaultMediaType  = "application/octet-stream"
)

// Option is a functional option type for configuring a Driver.
type Option func(*Driver) error

// WithChunkSize sets the number of bytes sent per chunk request.
// It returns an error if n is not positive.
func WithChunkSize(n int64) Option {
	return func(d *Driver) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidParameter, n)
		}
		d.chunkSize = n
		return nil
	}
}

// WithMaxRetries sets the number of whole-session attempts made before the
// upload is abandoned.
// It returns an error if n is not positive.
func WithMaxRetries(n int) Option {
	return func(d *Driver) error {
		if n <= 0 {
			return fmt.Errorf("%w: retry bound must be positive, got %d", ErrInvalidParameter, n)
		}
		d.maxRetries = n
		return nil
	}
}

// WithProgress sets the sink that receives progress after every
// acknowledged chunk.
func WithProgress(p ProgressSink) Option {
	return func(d *Driver) error {
		if p == nil {
			p = nopProgress{}
		}
		d.progress = p
		return nil
	}
}

// WithMediaType sets the media type declared when opening a session.
func WithMediaType(typ string) Option {
	return func(d *Driver) error {
		if typ == "" {
			return fmt.Errorf("%w: empty media type", ErrInvalidParameter)
		}
		d.mediaType = typ
		return nil
	}
}

// Driver uploads files through a Transport. A Driver performs one chunk
// request at a time; it is not safe for concurrent use by multiple
// goroutines.
type Driver struct {
	transport  Transport
	log        logging.Logger
	progress   ProgressSink
	chunkSize  int64
	maxRetries int
	mediaType  string
}

// NewDriver returns a Driver sending requests through t and logging to l.
func NewDriver(t Transport, l logging.Logger, opts ...Option) (*Driver, error) {
	d := &Driver{
		transport:  t,
		log:        l,
		progress:   nopProgress{},
		chunkSize:  DefaultChunkSize,
		maxRetries: DefaultMaxRetries,
		mediaType:  DefaultMediaType,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return d, nil
}

// Upload uploads the file at path with the given metadata and returns the
// ID of the created video.
//
// The file is sent in chunks of the configured size over a single remote
// session. If a chunk fails after the transport's own retries, the chunk
// loop is re-entered on the same session, continuing from the last byte
// the endpoint acknowledged. After the configured number of failed
// attempts an *ExhaustedError is returned.
func (d *Driver) Upload(ctx context.Context, path string, meta Metadata) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", &NotFoundError{What: "video file", Name: path, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("could not open video file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("could not stat video file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrInvalidParameter, path)
	}
	if fi.Size() == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrInvalidParameter, path)
	}

	s := newSession(path, fi.Size(), d.chunkSize, d.mediaType, meta)
	d.log.Info("starting upload", "file", path, "size", units.BytesSize(float64(s.Size)), "chunks", s.TotalChunks())
	return d.upload(ctx, s, f)
}

// upload runs the chunk loop up to maxRetries times on session s.
func (d *Driver) upload(ctx context.Context, s *Session, r io.Reader) (string, error) {
	var err error
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		if attempt > 1 {
			var done bool
			done, err = d.resume(ctx, s)
			if done {
				return s.ID(), nil
			}
		}

		var id string
		if err == nil {
			id, err = d.send(ctx, s, r)
			if err == nil {
				d.log.Info("upload complete", "file", s.Path, "id", id)
				return id, nil
			}
		}

		if ctx.Err() != nil || permanent(err) {
			s.abort()
			return "", fmt.Errorf("could not upload file %q: %w", s.Path, err)
		}
		d.log.Warning("ran into an error while uploading a chunk",
			"file", s.Path, "attempt", attempt, "retries", d.maxRetries, "offset", s.Offset(), "error", err)
	}
	s.abort()
	return "", &ExhaustedError{Path: s.Path, Retries: d.maxRetries, Err: err}
}

// send opens the remote session if necessary, then sends chunks until the
// endpoint reports completion or a chunk fails.
func (d *Driver) send(ctx context.Context, s *Session, r io.Reader) (string, error) {
	if s.URI == "" {
		uri, err := d.transport.OpenSession(ctx, s.Metadata, s.Size, s.MediaType)
		if err != nil {
			return "", fmt.Errorf("could not open upload session: %w", err)
		}
		s.URI = uri
		d.log.Debug("opened upload session", "file", s.Path)
	}

	total := s.TotalChunks()
	for {
		chunk, err := s.next(r)
		if err != nil {
			return "", err
		}

		res := d.transport.SendNextChunk(ctx, s.URI, s.Offset(), s.Size, chunk)
		switch res.Status {
		case Complete:
			s.complete(res.ID)
			d.progress.Progress(s.ChunksCompleted(), total)
			return res.ID, nil
		case Incomplete:
			if err := s.advance(res.Offset); err != nil {
				return "", err
			}
			d.progress.Progress(s.ChunksCompleted(), total)
		default:
			return "", res.Err
		}
	}
}

// resume reconciles s with the number of bytes the endpoint reports it
// holds. It reports whether the endpoint already has the whole file.
// Transports that cannot be queried resume from the last acknowledged
// offset.
func (d *Driver) resume(ctx context.Context, s *Session) (bool, error) {
	q, ok := d.transport.(Resumer)
	if !ok || s.URI == "" {
		return false, nil
	}

	res := q.QueryProgress(ctx, s.URI, s.Size)
	switch res.Status {
	case Complete:
		s.complete(res.ID)
		d.progress.Progress(s.ChunksCompleted(), s.TotalChunks())
		d.log.Info("upload found complete on resume", "file", s.Path, "id", res.ID)
		return true, nil
	case Incomplete:
		if err := s.advance(res.Offset); err != nil {
			return false, err
		}
		d.log.Info("resuming upload", "file", s.Path, "offset", s.Offset())
		d.progress.Progress(s.ChunksCompleted(), s.TotalChunks())
		return false, nil
	default:
		d.log.Warning("could not query upload progress, resuming from last acknowledged offset",
			"file", s.Path, "offset", s.Offset(), "error", res.Err)
		return false, nil
	}
}
