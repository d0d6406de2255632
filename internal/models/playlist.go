package models

import "io"

// DefaultPlaylistName is used when the resolver returns a playlist without a name.
const DefaultPlaylistName = "Playlist"

// SourceTrackRef identifies the canonical track to resolve. ID is unique within a playlist.
type SourceTrackRef struct {
	Title   string
	Artists string
	ID      string
}

// CandidateMedia is one possible video match for a track.
//
// Every field is optional because the resolver may not find all metadata; a nil pointer means absent.
type CandidateMedia struct {
	ThumbnailURL *string
	Title        *string
	Channel      *string
	Duration     *string
	ViewCount    *int64
	SourceURL    *string
}

// URL returns the candidate's source URL and whether it is present and non-empty.
func (c CandidateMedia) URL() (string, bool) {
	if c.SourceURL == nil || *c.SourceURL == "" {
		return "", false
	}
	return *c.SourceURL, true
}

// TrackMatch pairs a source track with its ordered candidates.
type TrackMatch struct {
	Source     SourceTrackRef
	Candidates []CandidateMedia
}

// SkipReason explains why a resolved track was not admitted to [PlaylistResult.Matches].
type SkipReason string

const (
	SkipNoCandidates SkipReason = "no_candidates"
	SkipMissingID    SkipReason = "missing_id"
	SkipDuplicateID  SkipReason = "duplicate_id"
)

// SkippedTrack is a resolved track that cannot be selected or downloaded.
type SkippedTrack struct {
	Source SourceTrackRef
	Reason SkipReason
}

// PlaylistResult is the outcome of one successful search.
//
// Matches keeps playlist order and is keyed implicitly by Source.ID; every match has at least one candidate.
type PlaylistResult struct {
	Name    string
	Matches []TrackMatch
	Skipped []SkippedTrack
}

// NewPlaylistResult admits the resolved tracks in order, moving tracks with no id,
// a repeated id, or no candidates to Skipped.
func NewPlaylistResult(name string, tracks []TrackMatch) PlaylistResult {
	if name == "" {
		name = DefaultPlaylistName
	}

	result := PlaylistResult{Name: name, Matches: make([]TrackMatch, 0, len(tracks))}
	seen := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		var reason SkipReason
		switch {
		case t.Source.ID == "":
			reason = SkipMissingID
		case seen[t.Source.ID]:
			reason = SkipDuplicateID
		case len(t.Candidates) == 0:
			reason = SkipNoCandidates
		}

		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedTrack{Source: t.Source, Reason: reason})
			continue
		}

		seen[t.Source.ID] = true
		result.Matches = append(result.Matches, t)
	}
	return result
}

// Index returns the position of trackID in Matches, or -1.
func (p PlaylistResult) Index(trackID string) int {
	for i, m := range p.Matches {
		if m.Source.ID == trackID {
			return i
		}
	}
	return -1
}

// Match returns the match for trackID.
func (p PlaylistResult) Match(trackID string) (TrackMatch, bool) {
	if i := p.Index(trackID); i >= 0 {
		return p.Matches[i], true
	}
	return TrackMatch{}, false
}

// SelectionMap maps a track id to the chosen candidate index.
type SelectionMap map[string]int

// Clone returns an independent copy of s.
func (s SelectionMap) Clone() SelectionMap {
	c := make(SelectionMap, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// DownloadItem is one track of a [DownloadRequest]. SourceURL may be empty.
type DownloadItem struct {
	TrackID   string
	SourceURL string
}

// DownloadRequest is built fresh for every download attempt; item order is archive order.
type DownloadRequest struct {
	PlaylistName string
	Items        []DownloadItem
}

// Archive is the packaged payload returned by the download service.
//
// The caller owns Body and must close it.
type Archive struct {
	Name        string
	ContentType string
	Size        int64 // -1 when unknown
	Body        io.ReadCloser
}
