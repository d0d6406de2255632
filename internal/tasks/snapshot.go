package tasks

import (
	"fmt"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
)

// Snapshot is an immutable PlaylistResult and SelectionMap pair.
//
// Every match has exactly one selection entry. Edits return a new Snapshot that keeps the
// identity of the search that produced it; callers must treat Result's slices as read-only.
type Snapshot struct {
	id        string
	result    models.PlaylistResult
	selection models.SelectionMap
}

// NewSnapshot pairs result with a selection of index 0 for every match.
func NewSnapshot(result models.PlaylistResult) *Snapshot {
	selection := make(models.SelectionMap, len(result.Matches))
	for _, m := range result.Matches {
		selection[m.Source.ID] = 0
	}
	return &Snapshot{id: shared.GenerateID(), result: result, selection: selection}
}

// ID identifies the search this snapshot descends from.
func (s *Snapshot) ID() string { return s.id }

// Name returns the playlist name.
func (s *Snapshot) Name() string { return s.result.Name }

// Len returns the number of matches.
func (s *Snapshot) Len() int { return len(s.result.Matches) }

// Result returns the playlist result.
func (s *Snapshot) Result() models.PlaylistResult { return s.result }

// Selection returns a copy of the selection map.
func (s *Snapshot) Selection() models.SelectionMap { return s.selection.Clone() }

// Selected returns the chosen candidate index for trackID.
func (s *Snapshot) Selected(trackID string) (int, bool) {
	idx, ok := s.selection[trackID]
	return idx, ok
}

// Select returns a snapshot with candidateIndex chosen for trackID.
//
// Selecting the current index returns s unchanged.
func (s *Snapshot) Select(trackID string, candidateIndex int) (*Snapshot, error) {
	match, ok := s.result.Match(trackID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	if candidateIndex < 0 || candidateIndex >= len(match.Candidates) {
		return nil, fmt.Errorf("%w: %d not in [0, %d) for %s", shared.ErrInvalidSelection, candidateIndex, len(match.Candidates), trackID)
	}
	if s.selection[trackID] == candidateIndex {
		return s, nil
	}

	selection := s.selection.Clone()
	selection[trackID] = candidateIndex
	return &Snapshot{id: s.id, result: s.result, selection: selection}, nil
}

// Remove returns a snapshot without trackID in either the matches or the selection.
//
// Removing an absent id returns s unchanged.
func (s *Snapshot) Remove(trackID string) *Snapshot {
	i := s.result.Index(trackID)
	if i < 0 {
		return s
	}

	matches := make([]models.TrackMatch, 0, len(s.result.Matches)-1)
	matches = append(matches, s.result.Matches[:i]...)
	matches = append(matches, s.result.Matches[i+1:]...)

	selection := s.selection.Clone()
	delete(selection, trackID)

	result := s.result
	result.Matches = matches
	return &Snapshot{id: s.id, result: result, selection: selection}
}

// CurrentSelection returns the chosen candidate for trackID.
func (s *Snapshot) CurrentSelection(trackID string) (models.CandidateMedia, error) {
	match, ok := s.result.Match(trackID)
	if !ok {
		return models.CandidateMedia{}, fmt.Errorf("%w: %s", shared.ErrTrackNotFound, trackID)
	}
	return match.Candidates[s.selection[trackID]], nil
}
