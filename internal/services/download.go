package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/models"
)

const (
	defaultDownloadPath = "/download"
	archiveContentType  = "application/zip"
)

// DownloadRequest is the JSON body sent to the download endpoint.
type DownloadRequest struct {
	PlaylistName string         `json:"playlist_name"`
	Tracks       []DownloadItem `json:"tracks"`
}

// DownloadItem is one requested track.
type DownloadItem struct {
	TrackID string `json:"track_id"`
	URL     string `json:"url"`
}

// NewDownloadRequest converts a [models.DownloadRequest] into its wire form, keeping item order.
func NewDownloadRequest(req models.DownloadRequest) DownloadRequest {
	items := make([]DownloadItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, DownloadItem{TrackID: it.TrackID, URL: it.SourceURL})
	}
	return DownloadRequest{PlaylistName: req.PlaylistName, Tracks: items}
}

// ToModel converts the wire request back into a [models.DownloadRequest].
func (r DownloadRequest) ToModel() models.DownloadRequest {
	items := make([]models.DownloadItem, 0, len(r.Tracks))
	for _, t := range r.Tracks {
		items = append(items, models.DownloadItem{TrackID: t.TrackID, SourceURL: t.URL})
	}
	return models.DownloadRequest{PlaylistName: r.PlaylistName, Items: items}
}

// HTTPDownloadGateway implements [DownloadGateway] over [APIService].
type HTTPDownloadGateway struct {
	api    *APIService
	path   string
	logger *log.Logger
}

// NewDownloadGateway creates a download gateway posting to path (default "/download").
func NewDownloadGateway(api *APIService, path string, logger *log.Logger) *HTTPDownloadGateway {
	if path == "" {
		path = defaultDownloadPath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HTTPDownloadGateway{api: api, path: path, logger: logger}
}

// Download posts the request and returns the archive stream.
//
// The archive name is taken from the served Content-Disposition when present,
// otherwise it is derived from the playlist name.
func (g *HTTPDownloadGateway) Download(ctx context.Context, req models.DownloadRequest) (*models.Archive, error) {
	data, err := json.Marshal(NewDownloadRequest(req))
	if err != nil {
		return nil, &ServiceError{Op: "download", Kind: KindTransport, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	resp, err := g.api.Open(ctx, g.path, data)
	if err != nil {
		g.logger.Error("download request failed", "playlist", req.PlaylistName, "error", err)
		return nil, unreachable("download", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, unreachable("download", fmt.Errorf("failed to read response: %w", err))
		}
		serr := failure("download", resp.StatusCode, body)
		g.logger.Warn("download rejected", "playlist", req.PlaylistName, "status", resp.StatusCode, "kind", serr.Kind)
		return nil, serr
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = archiveContentType
	}

	name := servedFileName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = formatter.ArchiveFileName(req.PlaylistName)
	}

	g.logger.Debug("download started", "playlist", req.PlaylistName, "tracks", len(req.Items), "file", name)
	return &models.Archive{
		Name:        name,
		ContentType: contentType,
		Size:        resp.ContentLength,
		Body:        resp.Body,
	}, nil
}

// servedFileName extracts the attachment name from a Content-Disposition header.
//
// filename* (RFC 5987) is preferred by [mime.ParseMediaType]; path components are stripped.
func servedFileName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
