package transport

import (
	"context"
	"fmt"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the remote answered 200.
func (r *Response) OK() bool { return r.StatusCode == http.StatusOK }

// Success reports whether the status is 2xx.
func (r *Response) Success() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Session is one scoped transport acquisition. The owner must Close it.
type Session interface {
	Get(ctx context.Context, url string, header http.Header) (*Response, error)
	Close() error
}

// Dialer opens transport sessions for a single account.
type Dialer interface {
	Open(ctx context.Context) (Session, error)
}

// Error wraps a network-level failure: connection refused, timeout, proxy failure,
// or failure to construct the transport at all.
type Error struct {
	Op  string
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ParseError means a response body did not have the expected shape.
type ParseError struct {
	Step string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Step, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// RejectionError means the remote answered a call that must succeed with a non-success status.
type RejectionError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s rejected: status %d", e.Step, e.StatusCode)
	}
	return fmt.Sprintf("%s rejected: status %d, body: %s", e.Step, e.StatusCode, e.Body)
}
