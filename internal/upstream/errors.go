// Package upstream defines the failure results shared by the outbound clients.
// A call either succeeds with a decoded value, fails with an *Error carrying
// the upstream's status and body, or fails with a *TransportError when no
// usable response arrived.
package upstream

import (
	"errors"
	"fmt"
	"io"
)

// ErrBodyTooLarge reports a response body longer than the reader's limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Kinds reported to clients in 500 responses.
const (
	KindUpstream  = "upstream"
	KindTransport = "transport"
)

// Error is a non-2xx response from an upstream.
type Error struct {
	Upstream string
	Status   int
	Body     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %d - %s", e.Upstream, e.Status, e.Body)
}

// TransportError is a failure to send a request or to read and decode its
// response.
type TransportError struct {
	Upstream string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Upstream, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind classifies err for error responses. ok is false when err is neither
// an *Error nor a *TransportError.
func Kind(err error) (kind string, ok bool) {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		return KindUpstream, true
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport, true
	}
	return "", false
}

// ReadBody reads all of r when it holds at most limit bytes. Longer bodies
// fail with ErrBodyTooLarge instead of being truncated.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	return data, nil
}
