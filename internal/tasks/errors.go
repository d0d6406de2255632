package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
)

// OpError is the failure returned by the orchestrators.
//
// Message is safe to show to the user; Err keeps the cause for logs and [errors.Is].
type OpError struct {
	Op      string // "search" or "download"
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }

// translate converts any failure into an [OpError] with a user-facing message.
func translate(op string, err error, msgs shared.Messages) *OpError {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr
	}

	generic := msgs.SearchFailed
	if op == "download" {
		generic = msgs.DownloadFailed
	}

	var serr *services.ServiceError
	switch {
	case errors.As(err, &serr):
		switch serr.Kind {
		case services.KindStructured:
			return &OpError{Op: op, Message: serr.Detail, Err: err}
		case services.KindUnstructured:
			return &OpError{Op: op, Message: fmt.Sprintf("%s (%d)", generic, serr.Status), Err: err}
		default:
			return &OpError{Op: op, Message: msgs.InternalError, Err: err}
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &OpError{Op: op, Message: msgs.InternalError, Err: fmt.Errorf("%w: %w", shared.ErrServiceUnreachable, err)}
	case errors.Is(err, shared.ErrInvalidLink):
		return &OpError{Op: op, Message: msgs.InvalidLink, Err: err}
	case errors.Is(err, shared.ErrEmptyPlaylist):
		return &OpError{Op: op, Message: msgs.EmptyPlaylist, Err: err}
	default:
		if generic == "" {
			generic = msgs.Unknown
		}
		return &OpError{Op: op, Message: generic, Err: err}
	}
}
