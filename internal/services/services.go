// package services defines the gateways to the external playlist service
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
)

// SearchGateway resolves a playlist link into matched tracks.
type SearchGateway interface {
	Search(ctx context.Context, link string) (*models.PlaylistResult, error)
}

// DownloadGateway packages the requested sources into an archive.
type DownloadGateway interface {
	Download(ctx context.Context, req models.DownloadRequest) (*models.Archive, error)
}

// ErrorKind classifies a boundary failure.
type ErrorKind int

const (
	KindStructured ErrorKind = iota
	KindUnstructured
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindUnstructured:
		return "unstructured"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindStructured:
		return shared.ErrServiceRejected
	case KindUnstructured:
		return shared.ErrServiceFailed
	default:
		return shared.ErrServiceUnreachable
	}
}

// ServiceError is a failed round-trip to the external service.
type ServiceError struct {
	Op     string    // "search" or "download"
	Kind   ErrorKind // how the failure may be presented
	Status int       // HTTP status, 0 for transport failures
	Detail string    // reason sent by the service, only set for KindStructured
	Err    error     // underlying cause, if any
}

func (e *ServiceError) Error() string {
	switch e.Kind {
	case KindStructured:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.Status)
	case KindUnstructured:
		if e.Err != nil {
			return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
		}
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Unwrap exposes the kind sentinel and the cause to [errors.Is] and [errors.As].
func (e *ServiceError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
