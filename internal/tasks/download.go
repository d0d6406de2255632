package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
)

// Saver hands a downloaded archive to its destination and returns where it went and how many bytes were written.
//
// Save must close archive.Body.
type Saver interface {
	Save(ctx context.Context, archive *models.Archive) (string, int64, error)
}

// HistoryRecorder persists completed downloads.
//
// Implemented by repositories.DownloadRepository.
type HistoryRecorder interface {
	Create(record *models.DownloadRecord) error
}

// DownloadResult describes a saved archive.
type DownloadResult struct {
	Path           string
	Size           int64
	Request        models.DownloadRequest
	MissingSources int // items sent with an empty source URL
	SnapshotID     string
}

// BuildRequest derives a download request from result and sel in match order.
//
// A track without a selection uses its first candidate; a candidate without a URL is sent with an empty one.
func BuildRequest(result models.PlaylistResult, sel models.SelectionMap) (models.DownloadRequest, error) {
	if len(result.Matches) == 0 {
		return models.DownloadRequest{}, shared.ErrEmptyPlaylist
	}

	req := models.DownloadRequest{
		PlaylistName: result.Name,
		Items:        make([]models.DownloadItem, 0, len(result.Matches)),
	}
	for _, m := range result.Matches {
		idx := sel[m.Source.ID]
		if idx < 0 || idx >= len(m.Candidates) {
			return models.DownloadRequest{}, fmt.Errorf("%w: %d for %s", shared.ErrInvalidSelection, idx, m.Source.ID)
		}
		url, _ := m.Candidates[idx].URL()
		req.Items = append(req.Items, models.DownloadItem{TrackID: m.Source.ID, SourceURL: url})
	}
	return req, nil
}

func missingSources(req models.DownloadRequest) int {
	n := 0
	for _, it := range req.Items {
		if it.SourceURL == "" {
			n++
		}
	}
	return n
}

// DownloadOrchestrator builds a request from a snapshot, fetches the archive and saves it.
type DownloadOrchestrator struct {
	gateway  services.DownloadGateway
	saver    Saver
	history  HistoryRecorder
	messages shared.Messages
	logger   *log.Logger
}

// NewDownloadOrchestrator creates a download orchestrator. history may be nil.
func NewDownloadOrchestrator(gw services.DownloadGateway, saver Saver, history HistoryRecorder, msgs shared.Messages, logger *log.Logger) *DownloadOrchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &DownloadOrchestrator{gateway: gw, saver: saver, history: history, messages: msgs, logger: logger}
}

// Download builds the request for snap, calls the gateway once and saves the archive once.
func (o *DownloadOrchestrator) Download(ctx context.Context, snap *Snapshot, progress chan<- ProgressUpdate) (*DownloadResult, error) {
	return o.DownloadTo(ctx, snap, o.saver, progress)
}

// DownloadTo is [DownloadOrchestrator.Download] with an explicit saver.
//
// An empty snapshot fails with [shared.ErrEmptyPlaylist] before any network call. Every failure is an [*OpError].
// A final [Done] update is always sent.
func (o *DownloadOrchestrator) DownloadTo(ctx context.Context, snap *Snapshot, saver Saver, progress chan<- ProgressUpdate) (res *DownloadResult, err error) {
	defer func() { sendProgress(progress, doneUpdate("download", err)) }()

	if snap == nil {
		return nil, &OpError{Op: "download", Message: o.messages.EmptyPlaylist, Err: shared.ErrNoSnapshot}
	}

	req, err := BuildRequest(snap.Result(), snap.Selection())
	if err != nil {
		o.logger.Warn("download blocked", "playlist", snap.Name(), "error", err)
		return nil, translate("download", err, o.messages)
	}

	missing := missingSources(req)
	sendProgress(progress, buildRequestUpdate(len(req.Items)))
	if missing > 0 {
		o.logger.Warn("tracks without a source", "playlist", req.PlaylistName, "missing", missing)
	}

	sendProgress(progress, transferUpdate(req.PlaylistName, len(req.Items)))
	archive, err := o.gateway.Download(ctx, req)
	if err != nil {
		o.logger.Error("download failed", "playlist", req.PlaylistName, "error", err)
		return nil, translate("download", err, o.messages)
	}
	defer archive.Body.Close()
	if archive.Name == "" {
		archive.Name = formatter.ArchiveFileName(req.PlaylistName)
	}

	sendProgress(progress, saveUpdate(archive.Name))
	path, size, err := saver.Save(ctx, archive)
	if err != nil {
		if errors.Is(err, shared.ErrStaleSnapshot) {
			o.logger.Warn("discarded stale archive", "playlist", req.PlaylistName, "snapshot", snap.ID())
			return nil, &OpError{Op: "download", Message: o.messages.StaleDownload, Err: err}
		}
		o.logger.Error("failed to save archive", "playlist", req.PlaylistName, "error", err)
		return nil, &OpError{Op: "download", Message: o.messages.DownloadFailed, Err: err}
	}

	res = &DownloadResult{Path: path, Size: size, Request: req, MissingSources: missing, SnapshotID: snap.ID()}
	o.logger.Info("archive saved", "playlist", req.PlaylistName, "tracks", len(req.Items), "path", path, "bytes", size)
	o.record(res)
	return res, nil
}

// record stores res in the history; failures are logged and ignored.
func (o *DownloadOrchestrator) record(res *DownloadResult) {
	if o.history == nil {
		return
	}
	rec := models.NewDownloadRecord(res.SnapshotID, res.Request.PlaylistName, len(res.Request.Items), res.MissingSources, res.Path, res.Size)
	if err := o.history.Create(rec); err != nil {
		o.logger.Warn("failed to record download", "path", res.Path, "error", err)
	}
}
