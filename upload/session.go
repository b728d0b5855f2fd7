/*
DESCRIPTION
  session.go provides the Session type, which tracks the progress of a single
  resumable upload, and the ChunkResult type describing the outcome of sending
  one chunk.

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
	"fmt"
	"io"
)

// State is the lifecycle state of a Session.
type State int

// Session states.
const (
	StateOpened State = iota
	StateSending
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateOpened:
		return "opened"
	case StateSending:
		return "sending"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ChunkStatus tags a ChunkResult.
type ChunkStatus int

// Chunk outcomes.
const (
	Incomplete ChunkStatus = iota // The session continues, Offset holds the acknowledged byte count.
	Complete                      // The upload finished, ID holds the new video ID.
	Failed                        // The request failed, Err holds the classified error.
)

func (s ChunkStatus) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("ChunkStatus(%d)", int(s))
	}
}

// ChunkResult is the outcome of sending one chunk to, or querying the
// status of, a resumable session.
type ChunkResult struct {
	Status ChunkStatus
	Offset int64
	ID     string
	Err    error
}

// Metadata is the document describing the video being uploaded. The
// driver never looks inside JSON; Parts names its top-level groups.
type Metadata struct {
	Parts []string
	JSON  []byte
}

// Session is one in-progress resumable upload. It is created by
// Driver.Upload and mutated only by it.
type Session struct {
	Path      string
	Size      int64
	ChunkSize int64
	MediaType string
	Metadata  Metadata

	// URI is the opaque session handle issued by the remote endpoint.
	URI string

	state  State
	offset int64  // Bytes acknowledged by the remote endpoint.
	chunks int    // Chunks fully acknowledged.
	read   int64  // Bytes read from the source so far.
	buf    []byte // Read from the source but not yet acknowledged.
	id     string
}

func newSession(path string, size, chunkSize int64, mediaType string, meta Metadata) *Session {
	return &Session{
		Path:      path,
		Size:      size,
		ChunkSize: chunkSize,
		MediaType: mediaType,
		Metadata:  meta,
		state:     StateOpened,
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Offset returns the number of bytes acknowledged by the remote endpoint.
func (s *Session) Offset() int64 { return s.offset }

// ChunksCompleted returns the number of chunks fully acknowledged.
func (s *Session) ChunksCompleted() int { return s.chunks }

// TotalChunks returns ceil(Size / ChunkSize).
func (s *Session) TotalChunks() int {
	return int((s.Size + s.ChunkSize - 1) / s.ChunkSize)
}

// ID returns the remote video ID once the session has completed.
func (s *Session) ID() string { return s.id }

// next returns the bytes to send next. Unacknowledged bytes are returned
// again rather than re-read, so the source is only ever read forwards.
func (s *Session) next(r io.Reader) ([]byte, error) {
	if len(s.buf) != 0 {
		return s.buf, nil
	}
	n := s.ChunkSize
	if rem := s.Size - s.read; rem < n {
		n = rem
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: nothing left to send at offset %d of %d", ErrProtocol, s.offset, s.Size)
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, fmt.Errorf("could not read chunk at offset %d: %w", s.read, err)
	}
	s.read += n
	s.buf = buf
	return buf, nil
}

// advance records that the remote endpoint has acknowledged every byte
// before ack. A chunk counts as completed once all of its bytes are
// acknowledged.
func (s *Session) advance(ack int64) error {
	if ack < s.offset {
		return fmt.Errorf("%w: acknowledged %d bytes, previously %d", ErrSessionLost, ack, s.offset)
	}
	if ack > s.offset+int64(len(s.buf)) {
		return fmt.Errorf("%w: acknowledged %d bytes, only %d sent", ErrProtocol, ack, s.offset+int64(len(s.buf)))
	}
	s.state = StateSending
	if len(s.buf) == 0 {
		return nil
	}
	s.buf = s.buf[ack-s.offset:]
	s.offset = ack
	if len(s.buf) == 0 {
		s.buf = nil
		s.chunks++
	}
	return nil
}

// complete marks the session completed with the given remote ID. The
// endpoint holds every byte at this point.
func (s *Session) complete(id string) {
	s.offset = s.Size
	s.chunks = s.TotalChunks()
	s.buf = nil
	s.id = id
	s.state = StateCompleted
}

// abort marks the session aborted. An aborted session is never resumed.
func (s *Session) abort() { s.state = StateAborted }
