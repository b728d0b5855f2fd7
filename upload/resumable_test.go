/*
DESCRIPTION
  resumable_test.go tests the ResumableTransport against a fake YouTube
  resumable upload endpoint.

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
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uploadPath  = "/upload/youtube/v3/videos"
	sessionPath = "/upload/session/abc"
)

// fakeEndpoint mimics the YouTube resumable upload protocol.
type fakeEndpoint struct {
	mu       sync.Mutex
	url      string
	size     int64
	data     []byte
	parts    string
	meta     []byte
	puts     int
	failures int // Number of chunk requests to fail with 503 before accepting.
	status   int // If non-zero, every chunk request fails with this status.
}

func (e *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == uploadPath:
		if r.URL.Query().Get("uploadType") != "resumable" {
			http.Error(w, "not resumable", http.StatusBadRequest)
			return
		}
		n, err := strconv.ParseInt(r.Header.Get("X-Upload-Content-Length"), 10, 64)
		if err != nil {
			http.Error(w, "bad length", http.StatusBadRequest)
			return
		}
		e.size = n
		e.parts = r.URL.Query().Get("part")
		e.meta, _ = io.ReadAll(r.Body)
		w.Header().Set("Location", e.url+sessionPath)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && r.URL.Path == sessionPath:
		e.puts++
		body, _ := io.ReadAll(r.Body)
		cr := r.Header.Get("Content-Range")
		if cr == fmt.Sprintf("bytes */%d", e.size) {
			e.reply(w)
			return
		}
		if e.status != 0 {
			writeAPIError(w, e.status)
			return
		}
		if e.failures > 0 {
			e.failures--
			writeAPIError(w, http.StatusServiceUnavailable)
			return
		}
		var first, last, total int64
		_, err := fmt.Sscanf(cr, "bytes %d-%d/%d", &first, &last, &total)
		if err != nil || first != int64(len(e.data)) || last-first+1 != int64(len(body)) || total != e.size {
			http.Error(w, "bad content range "+cr, http.StatusBadRequest)
			return
		}
		e.data = append(e.data, body...)
		e.reply(w)

	default:
		http.NotFound(w, r)
	}
}

func (e *fakeEndpoint) reply(w http.ResponseWriter) {
	if int64(len(e.data)) == e.size {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"kind":"youtube#video","id":%q}`, testID)
		return
	}
	if len(e.data) != 0 {
		w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", len(e.data)-1))
	}
	w.WriteHeader(statusResumeIncomplete)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"code":%d,"message":"%s"}}`, status, http.StatusText(status))
}

func newFakeEndpoint(t *testing.T) (*fakeEndpoint, *httptest.Server) {
	e := &fakeEndpoint{}
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	e.url = srv.URL
	return e, srv
}

func newTestTransport(t *testing.T, srv *httptest.Server, l logging.Logger, retries int) *ResumableTransport {
	rt, err := NewResumableTransport(srv.Client(), l, retries,
		WithEndpoint(srv.URL+uploadPath),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(t, err)
	return rt
}

func TestResumableUpload(t *testing.T) {
	const (
		chunk = 1000
		size  = 2*chunk + 500
	)
	e, srv := newFakeEndpoint(t)
	e.failures = 1
	l := newCountingLogger(t)

	path := writeTestFile(t, size)
	d, err := NewDriver(newTestTransport(t, srv, l, 3), l, WithChunkSize(chunk), WithMediaType("video/mp4"))
	require.NoError(t, err)

	meta := Metadata{Parts: []string{"snippet", "status"}, JSON: []byte(`{"snippet":{"title":"t"}}`)}
	id, err := d.Upload(context.Background(), path, meta)
	require.NoError(t, err)
	assert.Equal(t, testID, id)

	want, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(want, e.data), "endpoint data does not match file")
	assert.Equal(t, "snippet,status", e.parts)
	assert.Equal(t, meta.JSON, e.meta)
	assert.Equal(t, 4, e.puts, "three chunks and one retry")
	require.Equal(t, 1, l.warnings, "the retried request is logged once")
	assert.Contains(t, l.messages[0], "retrying upload request")
	assert.Contains(t, l.messages[0], "503 Service Unavailable")
}

func TestResumableTransportRetryWarnings(t *testing.T) {
	e, srv := newFakeEndpoint(t)
	e.status = http.StatusServiceUnavailable
	e.size = 10
	l := newCountingLogger(t)
	rt := newTestTransport(t, srv, l, 2)

	res := rt.SendNextChunk(context.Background(), srv.URL+sessionPath, 0, 10, make([]byte, 10))
	require.Equal(t, Failed, res.Status)
	assert.Equal(t, 3, e.puts)
	require.Equal(t, 2, l.warnings, "only failures that are retried are warned of")
	for i, msg := range l.messages {
		assert.Contains(t, msg, fmt.Sprintf("attempt %d", i+1))
		assert.Contains(t, msg, "status 503 Service Unavailable")
	}
}

func TestResumableTransportNotImplemented(t *testing.T) {
	e, srv := newFakeEndpoint(t)
	e.status = http.StatusNotImplemented
	e.size = 10
	rt := newTestTransport(t, srv, (*logging.TestLogger)(t), 3)

	res := rt.SendNextChunk(context.Background(), srv.URL+sessionPath, 0, 10, make([]byte, 10))
	require.Equal(t, Failed, res.Status)
	assert.Equal(t, 1, e.puts, "501 is not retried")

	var ce *ChunkError
	require.ErrorAs(t, res.Err, &ce)
	assert.False(t, ce.Temporary())
	assert.True(t, permanent(res.Err), "501 aborts the upload")
}

func TestResumableTransportPermanentFailure(t *testing.T) {
	e, srv := newFakeEndpoint(t)
	e.status = http.StatusForbidden
	e.size = 10
	rt := newTestTransport(t, srv, (*logging.TestLogger)(t), 3)

	res := rt.SendNextChunk(context.Background(), srv.URL+sessionPath, 0, 10, make([]byte, 10))
	require.Equal(t, Failed, res.Status)

	var ce *ChunkError
	require.ErrorAs(t, res.Err, &ce)
	assert.Equal(t, http.StatusForbidden, ce.Status)
	assert.False(t, ce.Temporary())
	assert.Equal(t, 1, e.puts, "client errors are not retried")
}

func TestResumableTransportTransientExhausted(t *testing.T) {
	e, srv := newFakeEndpoint(t)
	e.status = http.StatusServiceUnavailable
	e.size = 10
	rt := newTestTransport(t, srv, (*logging.TestLogger)(t), 2)

	res := rt.SendNextChunk(context.Background(), srv.URL+sessionPath, 0, 10, make([]byte, 10))
	require.Equal(t, Failed, res.Status)

	var ce *ChunkError
	require.ErrorAs(t, res.Err, &ce)
	assert.True(t, ce.Temporary())
	assert.Equal(t, 3, e.puts, "one request and two retries")
}

func TestResumableTransportQueryProgress(t *testing.T) {
	e, srv := newFakeEndpoint(t)
	e.size = 10
	e.data = make([]byte, 4)
	rt := newTestTransport(t, srv, (*logging.TestLogger)(t), 0)

	res := rt.QueryProgress(context.Background(), srv.URL+sessionPath, 10)
	require.Equal(t, Incomplete, res.Status)
	assert.Equal(t, int64(4), res.Offset)

	e.data = make([]byte, 10)
	res = rt.QueryProgress(context.Background(), srv.URL+sessionPath, 10)
	require.Equal(t, Complete, res.Status)
	assert.Equal(t, testID, res.ID)
}

func TestOpenSessionNoLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	rt := newTestTransport(t, srv, (*logging.TestLogger)(t), 0)

	_, err := rt.OpenSession(context.Background(), testMeta, 10, DefaultMediaType)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		header  string
		want    int64
		wantErr bool
	}{
		{header: "", want: 0},
		{header: "bytes=0-0", want: 1},
		{header: "bytes=0-1048575", want: 1048576},
		{header: "bytes=10-20", wantErr: true},
		{header: "bytes=0-x", wantErr: true},
	}

	for i, test := range tests {
		got, err := parseRange(test.header)
		if (err != nil) != test.wantErr {
			t.Errorf("did not get expected error for test %d, got: %v, want error: %v", i, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("did not get expected result for test %d, got: %d want: %d", i, got, test.want)
		}
	}
}
