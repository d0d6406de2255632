package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
)

// SearchOrchestrator validates a link, resolves it through the search gateway and
// returns a freshly seeded [Snapshot]. It holds no session state and is safe for concurrent use.
type SearchOrchestrator struct {
	validator *LinkValidator
	gateway   services.SearchGateway
	messages  shared.Messages
	logger    *log.Logger
}

// NewSearchOrchestrator creates a search orchestrator.
func NewSearchOrchestrator(v *LinkValidator, gw services.SearchGateway, msgs shared.Messages, logger *log.Logger) *SearchOrchestrator {
	if v == nil {
		v = defaultValidator
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SearchOrchestrator{validator: v, gateway: gw, messages: msgs, logger: logger}
}

// Validator returns the link validator in use.
func (o *SearchOrchestrator) Validator() *LinkValidator {
	return o.validator
}

// Search resolves input into a new snapshot.
//
// An invalid link fails with [shared.ErrInvalidLink] before any network call. Every failure is an [*OpError].
// A final [Done] update is always sent.
func (o *SearchOrchestrator) Search(ctx context.Context, input string, progress chan<- ProgressUpdate) (snap *Snapshot, err error) {
	defer func() { sendProgress(progress, doneUpdate("search", err)) }()

	link := strings.TrimSpace(input)
	sendProgress(progress, validateUpdate(link))
	if !o.validator.Valid(link) {
		o.logger.Warn("rejected link", "link", link)
		return nil, &OpError{Op: "search", Message: o.messages.InvalidLink, Err: fmt.Errorf("%w: %q", shared.ErrInvalidLink, link)}
	}

	sendProgress(progress, resolveUpdate(link))
	result, err := o.gateway.Search(ctx, link)
	if err != nil {
		o.logger.Error("search failed", "link", link, "error", err)
		return nil, translate("search", err, o.messages)
	}

	for _, s := range result.Skipped {
		o.logger.Warn("track skipped", "playlist", result.Name, "track", s.Source.ID, "title", s.Source.Title, "reason", s.Reason)
	}

	snap = NewSnapshot(*result)
	o.logger.Info("playlist resolved", "playlist", snap.Name(), "tracks", snap.Len(), "snapshot", snap.ID())
	sendProgress(progress, resolvedUpdate(snap))
	return snap, nil
}
