/*
DESCRIPTION
  transport.go defines the capabilities the upload driver needs from the
  remote resumable-upload endpoint, and the progress sink it reports to.

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

import "context"

// Transport drives the remote side of a resumable upload. Implementations
// are expected to retry transient failures of a single request internally
// before returning a Failed result.
type Transport interface {
	// OpenSession sends the metadata, declares the total media size and
	// type, and returns the session URI issued by the endpoint.
	OpenSession(ctx context.Context, meta Metadata, size int64, mediaType string) (string, error)

	// SendNextChunk sends chunk, which starts at offset within a media of
	// size total bytes.
	SendNextChunk(ctx context.Context, uri string, offset, total int64, chunk []byte) ChunkResult
}

// Resumer is implemented by transports that can ask the endpoint how many
// bytes of a session it holds.
type Resumer interface {
	QueryProgress(ctx context.Context, uri string, total int64) ChunkResult
}

// ProgressSink receives the number of chunks acknowledged so far and the
// total number of chunks after every acknowledgement.
type ProgressSink interface {
	Progress(done, total int)
}

// ProgressFunc adapts a function to a ProgressSink.
type ProgressFunc func(done, total int)

func (f ProgressFunc) Progress(done, total int) { f(done, total) }

type nopProgress struct{}

func (nopProgress) Progress(int, int) {}
