package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
)

const maxBodyBytes = 1 << 20

// RelayHandler exposes search and download over HTTP, relaying both to the external service.
//
// Failures are answered with {"detail": ...}: a structured upstream reason is passed through with its status,
// anything else gets a localized generic message. Upstream error text never reaches the caller.
type RelayHandler struct {
	validator *tasks.LinkValidator
	search    services.SearchGateway
	download  services.DownloadGateway
	messages  shared.Messages
	logger    *log.Logger
}

// NewRelayHandler creates a relay over the given gateways.
func NewRelayHandler(v *tasks.LinkValidator, search services.SearchGateway, download services.DownloadGateway, msgs shared.Messages, logger *log.Logger) *RelayHandler {
	if v == nil {
		v = tasks.NewLinkValidator("")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RelayHandler{validator: v, search: search, download: download, messages: msgs, logger: logger}
}

// Register mounts POST /api/search and POST /api/download on r.
func (h *RelayHandler) Register(r Router) {
	r.Handle(http.MethodPost, "/api/search", http.HandlerFunc(h.Search))
	r.Handle(http.MethodPost, "/api/download", http.HandlerFunc(h.Download))
}

// Search handles POST /api/search with body {"link": string}.
func (h *RelayHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req services.SearchRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("invalid search body", "error", err)
		writeDetail(w, http.StatusBadRequest, h.messages.InvalidBody)
		return
	}

	link := strings.TrimSpace(req.Link)
	if !h.validator.Valid(link) {
		h.logger.Warn("rejected link", "link", link)
		writeDetail(w, http.StatusBadRequest, h.messages.InvalidLink)
		return
	}

	result, err := h.search.Search(r.Context(), link)
	if err != nil {
		status, detail := h.failure(err, h.messages.SearchFailed)
		h.logger.Error("search relay failed", "link", link, "status", status, "error", err)
		writeDetail(w, status, detail)
		return
	}

	h.logger.Info("search relayed", "link", link, "playlist", result.Name, "tracks", len(result.Matches), "skipped", len(result.Skipped))
	writeJSON(w, http.StatusOK, services.NewSearchResponse(*result))
}

// Download handles POST /api/download and streams the archive back as an attachment.
func (h *RelayHandler) Download(w http.ResponseWriter, r *http.Request) {
	var body services.DownloadRequest
	if err := decodeBody(w, r, &body); err != nil {
		h.logger.Warn("invalid download body", "error", err)
		writeDetail(w, http.StatusBadRequest, h.messages.InvalidBody)
		return
	}

	req := body.ToModel()
	if len(req.Items) == 0 {
		writeDetail(w, http.StatusBadRequest, h.messages.EmptyPlaylist)
		return
	}
	if strings.TrimSpace(req.PlaylistName) == "" {
		req.PlaylistName = models.DefaultPlaylistName
	}

	archive, err := h.download.Download(r.Context(), req)
	if err != nil {
		status, detail := h.failure(err, h.messages.DownloadFailed)
		h.logger.Error("download relay failed", "playlist", req.PlaylistName, "status", status, "error", err)
		writeDetail(w, status, detail)
		return
	}
	defer archive.Body.Close()

	contentType := archive.ContentType
	if contentType == "" {
		contentType = "application/zip"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", formatter.ContentDisposition(archive.Name))
	if archive.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(archive.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, archive.Body)
	if err != nil {
		h.logger.Error("archive stream interrupted", "playlist", req.PlaylistName, "bytes", n, "error", err)
		return
	}
	h.logger.Info("download relayed", "playlist", req.PlaylistName, "tracks", len(req.Items), "file", archive.Name, "bytes", n)
}

// failure maps a gateway error to the status and detail sent to the caller.
func (h *RelayHandler) failure(err error, generic string) (int, string) {
	var serr *services.ServiceError
	if !errors.As(err, &serr) {
		return http.StatusInternalServerError, h.messages.InternalError
	}

	switch serr.Kind {
	case services.KindStructured:
		return upstreamStatus(serr.Status), serr.Detail
	case services.KindUnstructured:
		status := upstreamStatus(serr.Status)
		return status, generic + " (" + strconv.Itoa(serr.Status) + ")"
	default:
		return http.StatusInternalServerError, h.messages.InternalError
	}
}

// upstreamStatus passes error statuses through and maps anything else to 502.
func upstreamStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusBadGateway
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
