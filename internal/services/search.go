package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/models"
)

const defaultSearchPath = "/search"

// SearchRequest is the JSON body sent to the search endpoint.
type SearchRequest struct {
	Link string `json:"link"`
}

// SearchResponse is the JSON body returned by the search endpoint.
//
// Skipped is only written by the relay; the upstream service never sends it.
type SearchResponse struct {
	PlaylistName string         `json:"playlist_name"`
	Tracks       []TrackMatch   `json:"tracks"`
	Skipped      []SkippedTrack `json:"skipped,omitempty"`
}

// SkippedTrack is a track the relay did not admit, with the reason.
type SkippedTrack struct {
	Source TrackSource `json:"source"`
	Reason string      `json:"reason"`
}

// TrackSource is the canonical track as sent by the service.
type TrackSource struct {
	Title   string `json:"title"`
	Artists string `json:"artists"`
	ID      string `json:"id"`
}

// Candidate is one resolved video; every field is nullable.
type Candidate struct {
	Thumbnail *string `json:"thumbnail"`
	Title     *string `json:"title"`
	Channel   *string `json:"channel"`
	Duration  *string `json:"duration"`
	Views     *int64  `json:"views"`
	URL       *string `json:"url"`
}

// TrackMatch is a source track with its candidates as sent by the service.
type TrackMatch struct {
	Source     TrackSource `json:"source"`
	Candidates []Candidate `json:"candidates"`
}

// ToModel converts the wire candidate into a [models.CandidateMedia].
func (c Candidate) ToModel() models.CandidateMedia {
	return models.CandidateMedia{
		ThumbnailURL: c.Thumbnail,
		Title:        c.Title,
		Channel:      c.Channel,
		Duration:     c.Duration,
		ViewCount:    c.Views,
		SourceURL:    c.URL,
	}
}

// NewSearchResponse converts a [models.PlaylistResult] into its wire form, keeping playlist order.
func NewSearchResponse(result models.PlaylistResult) SearchResponse {
	tracks := make([]TrackMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		candidates := make([]Candidate, 0, len(m.Candidates))
		for _, c := range m.Candidates {
			candidates = append(candidates, Candidate{
				Thumbnail: c.ThumbnailURL,
				Title:     c.Title,
				Channel:   c.Channel,
				Duration:  c.Duration,
				Views:     c.ViewCount,
				URL:       c.SourceURL,
			})
		}
		tracks = append(tracks, TrackMatch{Source: newTrackSource(m.Source), Candidates: candidates})
	}

	var skipped []SkippedTrack
	for _, s := range result.Skipped {
		skipped = append(skipped, SkippedTrack{Source: newTrackSource(s.Source), Reason: string(s.Reason)})
	}
	return SearchResponse{PlaylistName: result.Name, Tracks: tracks, Skipped: skipped}
}

func newTrackSource(s models.SourceTrackRef) TrackSource {
	return TrackSource{Title: s.Title, Artists: s.Artists, ID: s.ID}
}

// ToModel converts the response into a [models.PlaylistResult], keeping playlist order.
//
// Tracks already skipped by a relay are carried over after the newly skipped ones.
func (r SearchResponse) ToModel() models.PlaylistResult {
	tracks := make([]models.TrackMatch, 0, len(r.Tracks))
	for _, t := range r.Tracks {
		candidates := make([]models.CandidateMedia, 0, len(t.Candidates))
		for _, c := range t.Candidates {
			candidates = append(candidates, c.ToModel())
		}
		tracks = append(tracks, models.TrackMatch{
			Source:     models.SourceTrackRef{Title: t.Source.Title, Artists: t.Source.Artists, ID: t.Source.ID},
			Candidates: candidates,
		})
	}
	result := models.NewPlaylistResult(r.PlaylistName, tracks)
	for _, s := range r.Skipped {
		result.Skipped = append(result.Skipped, models.SkippedTrack{
			Source: models.SourceTrackRef{Title: s.Source.Title, Artists: s.Source.Artists, ID: s.Source.ID},
			Reason: models.SkipReason(s.Reason),
		})
	}
	return result
}

// HTTPSearchGateway implements [SearchGateway] over [APIService].
type HTTPSearchGateway struct {
	api    *APIService
	path   string
	logger *log.Logger
}

// NewSearchGateway creates a search gateway posting to path (default "/search").
func NewSearchGateway(api *APIService, path string, logger *log.Logger) *HTTPSearchGateway {
	if path == "" {
		path = defaultSearchPath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPSearchGateway{api: api, path: path, logger: logger}
}

// Search posts {"link": link} and decodes the resolved playlist.
func (g *HTTPSearchGateway) Search(ctx context.Context, link string) (*models.PlaylistResult, error) {
	resp, err := g.api.PostJSON(ctx, g.path, SearchRequest{Link: link})
	if err != nil {
		g.logger.Error("search request failed", "link", link, "error", err)
		return nil, unreachable("search", err)
	}

	if resp.StatusCode != http.StatusOK {
		serr := failure("search", resp.StatusCode, resp.Body)
		g.logger.Warn("search rejected", "link", link, "status", resp.StatusCode, "kind", serr.Kind)
		return nil, serr
	}

	var body SearchResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		g.logger.Error("failed to decode search response", "link", link, "error", err)
		return nil, &ServiceError{
			Op: "search", Kind: KindUnstructured, Status: resp.StatusCode,
			Err: fmt.Errorf("failed to decode response: %w", err),
		}
	}

	result := body.ToModel()
	g.logger.Debug("search resolved", "playlist", result.Name, "tracks", len(result.Matches), "skipped", len(result.Skipped))
	return &result, nil
}
