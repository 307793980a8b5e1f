// Package fulfill produces Responses from Requests. It holds the
// fulfillment backends (local, HTTP, message bus), the validation gate,
// and the pipeline that stitches them together.
//
// The single hard contract here: nothing in this package ever lets a
// panic or raw error escape toward the UI. Every failure becomes a
// well-formed error Response before it leaves the background thread.
package fulfill

import (
	"go.uber.org/zap"

	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

// Fulfiller produces a Response for a Request. Implementations run on
// background workers only and must always return a non-nil, well-formed
// Response; failures are expressed as error Responses.
type Fulfiller interface {
	Fulfill(req *protocol.Request) *protocol.Response
}

// CleanError is a user-facing error: its message is shown verbatim on
// the resulting error page instead of the generic message. Local
// fulfillment functions return it to surface a custom failure text.
type CleanError struct {
	Message string
}

func (e *CleanError) Error() string { return e.Message }

// LocalFunc is a pure page-building function used by LocalFulfiller.
type LocalFunc func(req *protocol.Request) (*protocol.Response, error)

// LocalFulfiller runs a LocalFunc, converting every possible failure
// mode into an error Response: a CleanError keeps its message, anything
// else (including a panic) becomes a GENERIC response and is logged.
type LocalFulfiller struct {
	fn  LocalFunc
	log *zap.Logger
}

// NewLocalFulfiller wraps fn.
func NewLocalFulfiller(fn LocalFunc) *LocalFulfiller {
	return &LocalFulfiller{fn: fn, log: logging.Get(logging.CategoryFulfill)}
}

// Fulfill implements Fulfiller.
func (l *LocalFulfiller) Fulfill(req *protocol.Request) (resp *protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic in local fulfiller",
				zap.String("path", req.Path), zap.Any("panic", r))
			resp = protocol.ErrorResponse(protocol.ErrorGeneric, "")
		}
	}()

	resp, err := l.fn(req)
	if err != nil {
		if clean, ok := err.(*CleanError); ok {
			return protocol.ErrorResponse(protocol.ErrorGeneric, clean.Message)
		}
		l.log.Error("local fulfiller failed",
			zap.String("path", req.Path), zap.Error(err))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	if resp == nil {
		l.log.Error("local fulfiller returned nil response",
			zap.String("path", req.Path))
		return protocol.ErrorResponse(protocol.ErrorGeneric, "")
	}
	return resp
}
