package engine

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/mscatalog/internal/domain"
)

// Transport is the search engine client: the only component that talks to the engine.
type Transport interface {
	Execute(ctx context.Context, q *Query) (*RawResult, error)
	Update(ctx context.Context, u *Update) (*RawResult, error)
	Ping(ctx context.Context) error
}

// Op names for transport errors.
const (
	OpSelect = "select"
	OpUpdate = "update"
	OpPing   = "ping"
)

// TransportError describes a failed engine request. It matches domain.ErrTransport and
// the underlying cause with errors.Is.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := "engine " + e.Op
	if e.StatusCode != 0 {
		msg += " status " + strconv.Itoa(e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrTransport}
	}
	return []error{domain.ErrTransport, e.Err}
}
