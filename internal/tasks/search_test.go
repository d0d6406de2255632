package tasks

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
	tu "github.com/desertthunder/plzip/internal/testing"
)

const validLink = "https://open.spotify.com/playlist/abc123"

func newSearch(gw services.SearchGateway) *SearchOrchestrator {
	return NewSearchOrchestrator(nil, gw, shared.MessagesFor("en"), shared.NewLogger(nil))
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-progress:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

func TestSearchOrchestrator(t *testing.T) {
	t.Run("Seeds Snapshot From Gateway", func(t *testing.T) {
		result := tu.Playlist("Road Trip", 2, "t1", "t2")
		gw := &tu.SearchGateway{Result: &result}
		progress := make(chan ProgressUpdate, 10)

		snap, err := newSearch(gw).Search(context.Background(), "  "+validLink+"\n", progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gw.Calls() != 1 || gw.Links[0] != validLink {
			t.Errorf("expected one call with trimmed link, got %v", gw.Links)
		}
		if snap.Name() != "Road Trip" || snap.Len() != 2 {
			t.Errorf("unexpected snapshot: %s (%d)", snap.Name(), snap.Len())
		}
		for _, id := range []string{"t1", "t2"} {
			if idx, ok := snap.Selected(id); !ok || idx != 0 {
				t.Errorf("expected %s seeded to 0", id)
			}
		}

		updates := drain(progress)
		if len(updates) == 0 || updates[len(updates)-1].Phase != Done || updates[len(updates)-1].Err != nil {
			t.Errorf("expected final successful Done update, got %+v", updates)
		}
	})

	t.Run("Invalid Link Makes No Call", func(t *testing.T) {
		gw := &tu.SearchGateway{}
		progress := make(chan ProgressUpdate, 10)

		_, err := newSearch(gw).Search(context.Background(), "https://open.spotify.com/album/abc123", progress)

		if !errors.Is(err, shared.ErrInvalidLink) {
			t.Errorf("expected ErrInvalidLink, got %v", err)
		}
		if err.Error() != shared.MessagesFor("en").InvalidLink {
			t.Errorf("expected localized message, got %q", err.Error())
		}
		if gw.Calls() != 0 {
			t.Errorf("expected no gateway calls, got %d", gw.Calls())
		}

		updates := drain(progress)
		if last := updates[len(updates)-1]; last.Phase != Done || last.Err == nil {
			t.Errorf("expected failed Done update, got %+v", last)
		}
	})

	t.Run("Failures", func(t *testing.T) {
		msgs := shared.MessagesFor("en")
		tests := []struct {
			name    string
			err     error
			message string
			is      error
		}{
			{
				name:    "Structured",
				err:     &services.ServiceError{Op: "search", Kind: services.KindStructured, Status: http.StatusNotFound, Detail: "playlist not found"},
				message: "playlist not found",
				is:      shared.ErrServiceRejected,
			},
			{
				name:    "Unstructured",
				err:     &services.ServiceError{Op: "search", Kind: services.KindUnstructured, Status: http.StatusBadGateway},
				message: msgs.SearchFailed + " (502)",
				is:      shared.ErrServiceFailed,
			},
			{
				name:    "Transport",
				err:     &services.ServiceError{Op: "search", Kind: services.KindTransport, Err: errors.New("dial tcp: connection refused")},
				message: msgs.InternalError,
				is:      shared.ErrServiceUnreachable,
			},
			{
				name:    "Canceled",
				err:     context.Canceled,
				message: msgs.InternalError,
				is:      shared.ErrServiceUnreachable,
			},
			{
				name:    "Unknown",
				err:     errors.New("boom"),
				message: msgs.SearchFailed,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				gw := &tu.SearchGateway{Err: tt.err}
				snap, err := newSearch(gw).Search(context.Background(), validLink, nil)

				if snap != nil {
					t.Error("expected no snapshot")
				}
				var opErr *OpError
				if !errors.As(err, &opErr) {
					t.Fatalf("expected OpError, got %T", err)
				}
				if opErr.Op != "search" || opErr.Error() != tt.message {
					t.Errorf("expected message %q, got %q", tt.message, opErr.Error())
				}
				if tt.is != nil && !errors.Is(err, tt.is) {
					t.Errorf("expected error to wrap %v", tt.is)
				}
			})
		}
	})

	t.Run("Localized Messages", func(t *testing.T) {
		o := NewSearchOrchestrator(NewLinkValidator(""), &tu.SearchGateway{}, shared.MessagesFor("pt-BR"), nil)
		_, err := o.Search(context.Background(), "not a url", nil)
		if err == nil || err.Error() != shared.MessagesFor("pt-BR").InvalidLink {
			t.Errorf("expected pt-BR message, got %v", err)
		}
	})
}
