package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
)

// Session owns the current snapshot for one user.
//
// Searches may overlap; a completed search is adopted only if no search issued after it
// has been adopted already. Edits replace the snapshot under the session lock. A download
// whose snapshot was replaced by a newer search before the archive arrived is discarded.
type Session struct {
	search   *SearchOrchestrator
	download *DownloadOrchestrator
	logger   *log.Logger

	mu      sync.Mutex
	current *Snapshot
	issued  uint64
	adopted uint64

	busy atomic.Int32
}

// NewSession creates an empty session.
func NewSession(search *SearchOrchestrator, download *DownloadOrchestrator, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	return &Session{search: search, download: download, logger: logger}
}

// Current returns the current snapshot, or nil before the first successful search.
func (s *Session) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Busy reports whether a search or download is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load() > 0
}

func (s *Session) begin() func() {
	s.busy.Add(1)
	return func() { s.busy.Add(-1) }
}

// Search resolves input and adopts the result as the current snapshot.
//
// On failure the current snapshot is untouched. A result overtaken by a newer search
// returns [shared.ErrSuperseded] and is not adopted.
func (s *Session) Search(ctx context.Context, input string, progress chan<- ProgressUpdate) (*Snapshot, error) {
	defer s.begin()()

	s.mu.Lock()
	s.issued++
	n := s.issued
	s.mu.Unlock()

	snap, err := s.search.Search(ctx, input, progress)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n < s.adopted {
		s.logger.Debug("discarding superseded search", "request", n, "adopted", s.adopted, "snapshot", snap.ID())
		return nil, fmt.Errorf("%w: request %d", shared.ErrSuperseded, n)
	}
	s.current = snap
	s.adopted = n
	return snap, nil
}

// Select chooses candidateIndex for trackID in the current snapshot.
func (s *Session) Select(trackID string, candidateIndex int) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, shared.ErrNoSnapshot
	}

	next, err := s.current.Select(trackID, candidateIndex)
	if err != nil {
		return nil, err
	}
	s.current = next
	return next, nil
}

// Remove drops trackID from the current snapshot. Removing an absent track is a no-op.
func (s *Session) Remove(trackID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, shared.ErrNoSnapshot
	}

	s.current = s.current.Remove(trackID)
	return s.current, nil
}

// Download fetches and saves the archive for the current snapshot.
func (s *Session) Download(ctx context.Context, progress chan<- ProgressUpdate) (*DownloadResult, error) {
	defer s.begin()()

	snap := s.Current()
	if snap == nil {
		return nil, &OpError{Op: "download", Message: s.download.messages.EmptyPlaylist, Err: shared.ErrNoSnapshot}
	}

	guard := staleGuard{next: s.download.saver, fresh: func() bool { return s.isCurrent(snap.ID()) }}
	return s.download.DownloadTo(ctx, snap, guard, progress)
}

func (s *Session) isCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.ID() == id
}

// staleGuard refuses to save an archive once its snapshot has been replaced.
//
// Freshness is checked before the write and again before a [CommitSaver] commits. Other savers
// are checked after saving; what they wrote is left in place.
type staleGuard struct {
	next  Saver
	fresh func() bool
}

func (g staleGuard) Save(ctx context.Context, archive *models.Archive) (string, int64, error) {
	check := func() error {
		if !g.fresh() {
			return fmt.Errorf("%w: %s", shared.ErrStaleSnapshot, archive.Name)
		}
		return nil
	}

	if err := check(); err != nil {
		archive.Body.Close()
		return "", 0, err
	}
	if cs, ok := g.next.(CommitSaver); ok {
		return cs.SaveCommit(ctx, archive, check)
	}

	path, n, err := g.next.Save(ctx, archive)
	if err != nil {
		return "", 0, err
	}
	if err := check(); err != nil {
		return "", 0, err
	}
	return path, n, nil
}
