/*
DESCRIPTION
  resumable.go provides a Transport implementing the YouTube Data API
  resumable upload protocol. Individual requests are retried on transient
  failures by a retryablehttp client.

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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/hashicorp/go-retryablehttp"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

// DefaultEndpoint is the YouTube videos.insert media upload endpoint.
const DefaultEndpoint = "https://www.googleapis.com/upload/youtube/v3/videos"

// ChunkMultiple is the size that every chunk but the last must be a
// multiple of.
const ChunkMultiple = 256 << 10

// statusResumeIncomplete is returned by the endpoint for every chunk but the last.
const statusResumeIncomplete = http.StatusPermanentRedirect

// TransportOption is a functional option type for configuring a
// ResumableTransport.
type TransportOption func(*ResumableTransport) error

// WithEndpoint sets the upload endpoint URL.
func WithEndpoint(endpoint string) TransportOption {
	return func(t *ResumableTransport) error {
		_, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
		t.endpoint = endpoint
		return nil
	}
}

// WithRetryWait sets the bounds of the backoff between retries of a single
// request.
func WithRetryWait(lo, hi time.Duration) TransportOption {
	return func(t *ResumableTransport) error {
		if lo <= 0 || hi < lo {
			return fmt.Errorf("invalid retry wait bounds: %v, %v", lo, hi)
		}
		t.client.RetryWaitMin = lo
		t.client.RetryWaitMax = hi
		return nil
	}
}

// ResumableTransport sends requests to a YouTube resumable upload endpoint.
type ResumableTransport struct {
	client   *retryablehttp.Client
	endpoint string
	log      logging.Logger
}

// NewResumableTransport returns a ResumableTransport that sends requests
// with hc, which must add authorisation, e.g. one returned by
// oauth2.Config.Client. Each request is attempted up to maxRetries+1 times.
func NewResumableTransport(hc *http.Client, l logging.Logger, maxRetries int, opts ...TransportOption) (*ResumableTransport, error) {
	// 308 is the endpoint's "resume incomplete" status and must not be
	// followed as a redirect.
	c := *hc
	c.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &c
	rc.RetryMax = maxRetries
	rc.Logger = leveledLogger{l}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if n, ok := req.Context().Value(attemptKey{}).(*int); ok {
			*n = attempt
		}
	}
	rc.CheckRetry = retryPolicy(l, maxRetries)

	t := &ResumableTransport{client: rc, endpoint: DefaultEndpoint, log: l}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return t, nil
}

// attemptKey is the context key of the attempt number of a request, kept
// current by the client's RequestLogHook.
type attemptKey struct{}

func withAttempts(ctx context.Context) context.Context {
	return context.WithValue(ctx, attemptKey{}, new(int))
}

// retryPolicy returns a retryablehttp.CheckRetry following the default
// policy, which warns with the cause of each failure that will be retried.
func retryPolicy(l logging.Logger, maxRetries int) retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		if !retry {
			return retry, checkErr
		}
		attempt := 0
		if n, ok := ctx.Value(attemptKey{}).(*int); ok {
			attempt = *n
		}
		if attempt >= maxRetries {
			return retry, checkErr
		}

		args := []interface{}{"attempt", attempt + 1, "retries", maxRetries}
		if resp != nil {
			args = append(args, "status", resp.Status)
		}
		if err != nil {
			args = append(args, "error", err)
		}
		l.Warning("retrying upload request", args...)
		return retry, checkErr
	}
}

// OpenSession implements Transport. It posts the metadata and returns the
// session URI from the Location header of the response.
func (t *ResumableTransport) OpenSession(ctx context.Context, meta Metadata, size int64, mediaType string) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("could not parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("uploadType", "resumable")
	q.Set("part", strings.Join(meta.Parts, ","))
	u.RawQuery = q.Encode()

	req, err := retryablehttp.NewRequestWithContext(withAttempts(ctx), http.MethodPost, u.String(), meta.JSON)
	if err != nil {
		return "", fmt.Errorf("could not create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
	req.Header.Set("X-Upload-Content-Type", mediaType)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &ChunkError{Op: "open session", Err: err}
	}
	defer drain(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &ChunkError{Op: "open session", Status: resp.StatusCode, Err: googleapi.CheckResponse(resp)}
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", &ChunkError{Op: "open session", Status: resp.StatusCode, Err: fmt.Errorf("%w: no session location in response", ErrProtocol)}
	}
	t.log.Debug("opened resumable session", "size", size, "type", mediaType)
	return loc, nil
}

// SendNextChunk implements Transport.
func (t *ResumableTransport) SendNextChunk(ctx context.Context, uri string, offset, total int64, chunk []byte) ChunkResult {
	req, err := retryablehttp.NewRequestWithContext(withAttempts(ctx), http.MethodPut, uri, chunk)
	if err != nil {
		return failed("send chunk", 0, err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(len(chunk))-1, total))
	req.ContentLength = int64(len(chunk))
	return t.do("send chunk", req)
}

// QueryProgress implements Resumer using an empty PUT with an unknown
// range, to which the endpoint replies with the range it holds.
func (t *ResumableTransport) QueryProgress(ctx context.Context, uri string, total int64) ChunkResult {
	req, err := retryablehttp.NewRequestWithContext(withAttempts(ctx), http.MethodPut, uri, nil)
	if err != nil {
		return failed("query progress", 0, err)
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", total))
	req.ContentLength = 0
	return t.do("query progress", req)
}

// do sends req and interprets the response of the session URI.
func (t *ResumableTransport) do(op string, req *retryablehttp.Request) ChunkResult {
	resp, err := t.client.Do(req)
	if err != nil {
		return failed(op, 0, err)
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var v youtube.Video
		err := json.NewDecoder(resp.Body).Decode(&v)
		if err != nil {
			return failed(op, resp.StatusCode, fmt.Errorf("%w: could not decode video resource: %v", ErrProtocol, err))
		}
		if v.Id == "" {
			return failed(op, resp.StatusCode, fmt.Errorf("%w: video resource has no ID", ErrProtocol))
		}
		return ChunkResult{Status: Complete, ID: v.Id}

	case statusResumeIncomplete:
		n, err := parseRange(resp.Header.Get("Range"))
		if err != nil {
			return failed(op, resp.StatusCode, err)
		}
		return ChunkResult{Status: Incomplete, Offset: n}

	default:
		return failed(op, resp.StatusCode, googleapi.CheckResponse(resp))
	}
}

// parseRange returns the number of bytes held by the endpoint given the
// Range header of a 308 response, e.g. "bytes=0-1048575". An absent header
// means no bytes are held.
func parseRange(h string) (int64, error) {
	if h == "" {
		return 0, nil
	}
	const prefix = "bytes=0-"
	if !strings.HasPrefix(h, prefix) {
		return 0, fmt.Errorf("%w: unexpected range header %q", ErrProtocol, h)
	}
	last, err := strconv.ParseInt(h[len(prefix):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad range header %q: %v", ErrProtocol, h, err)
	}
	return last + 1, nil
}

func failed(op string, status int, err error) ChunkResult {
	return ChunkResult{Status: Failed, Err: &ChunkError{Op: op, Status: status, Err: err}}
}

// drain reads the rest of body so the connection may be reused, then
// closes it.
func drain(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}

// leveledLogger adapts a logging.Logger to retryablehttp.LeveledLogger.
// Failed requests are warned of by retryPolicy or returned to the caller,
// so the client's own error messages are only logged for debugging.
type leveledLogger struct {
	l logging.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Debug(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Info(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Debug(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warning(msg, kv...) }
