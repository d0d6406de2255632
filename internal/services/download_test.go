package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
	tu "github.com/desertthunder/plzip/internal/testing"
)

func TestDownloadGateway(t *testing.T) {
	logger := shared.NewLogger(nil)
	req := models.DownloadRequest{
		PlaylistName: "Canções",
		Items: []models.DownloadItem{
			{TrackID: "t1", SourceURL: "https://www.youtube.com/watch?v=a"},
			{TrackID: "t2", SourceURL: ""},
		},
	}

	t.Run("Sends Items In Order And Streams Archive", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/download" {
				t.Errorf("expected path /download, got %s", r.URL.Path)
			}

			var body DownloadRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode request: %v", err)
				return
			}
			if body.PlaylistName != "Canções" {
				t.Errorf("expected playlist name, got %q", body.PlaylistName)
			}
			if len(body.Tracks) != 2 || body.Tracks[0].TrackID != "t1" || body.Tracks[1].TrackID != "t2" {
				t.Errorf("unexpected tracks: %+v", body.Tracks)
			}
			if body.Tracks[1].URL != "" {
				t.Errorf("expected empty url for t2, got %q", body.Tracks[1].URL)
			}

			w.Header().Set("Content-Type", "application/zip")
			w.Write([]byte("PK\x03\x04archive"))
		}))
		defer server.Close()

		gw := NewDownloadGateway(NewAPIService(server.URL, nil), "", logger)
		archive, err := gw.Download(context.Background(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer archive.Body.Close()

		if archive.Name != "Canções.zip" {
			t.Errorf("expected name from playlist, got %q", archive.Name)
		}
		if archive.ContentType != "application/zip" {
			t.Errorf("unexpected content type %q", archive.ContentType)
		}
		data, _ := io.ReadAll(archive.Body)
		if string(data) != "PK\x03\x04archive" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("Prefers Served File Name", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Disposition", "attachment; filename*=UTF-8''Ver%C3%A3o%202024.zip")
			w.Header()["Content-Type"] = nil
			w.Write([]byte("zip"))
		}))
		defer server.Close()

		gw := NewDownloadGateway(NewAPIService(server.URL, nil), "", logger)
		archive, err := gw.Download(context.Background(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer archive.Body.Close()

		if archive.Name != "Verão 2024.zip" {
			t.Errorf("expected served name, got %q", archive.Name)
		}
		if archive.ContentType != "application/zip" {
			t.Errorf("expected default content type, got %q", archive.ContentType)
		}
	})

	t.Run("Structured Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"detail":"no tracks could be downloaded"}`))
		}))
		defer server.Close()

		gw := NewDownloadGateway(NewAPIService(server.URL, nil), "", logger)
		_, err := gw.Download(context.Background(), req)

		var serr *ServiceError
		if !errors.As(err, &serr) || serr.Kind != KindStructured || serr.Detail != "no tracks could be downloaded" {
			t.Errorf("expected structured error, got %v", err)
		}
	})

	t.Run("Unstructured Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		gw := NewDownloadGateway(NewAPIService(server.URL, nil), "", logger)
		_, err := gw.Download(context.Background(), req)

		var serr *ServiceError
		if !errors.As(err, &serr) || serr.Kind != KindUnstructured || serr.Status != http.StatusInternalServerError {
			t.Errorf("expected unstructured 500, got %v", err)
		}
	})

	t.Run("Failure Body Read Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)}

		gw := NewDownloadGateway(NewAPIService("http://backend.test", client), "", logger)
		_, err := gw.Download(context.Background(), req)
		if !errors.Is(err, shared.ErrServiceUnreachable) {
			t.Errorf("expected ErrServiceUnreachable, got %v", err)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		gw := NewDownloadGateway(NewAPIService("http://backend.test", client), "", logger)
		_, err := gw.Download(context.Background(), req)
		if !errors.Is(err, shared.ErrServiceUnreachable) {
			t.Errorf("expected ErrServiceUnreachable, got %v", err)
		}
	})
}

func TestServedFileName(t *testing.T) {
	tests := map[string]string{
		"":                                   "",
		"attachment":                         "",
		`attachment; filename="mix.zip"`:     "mix.zip",
		"attachment; filename*=UTF-8''a%20b": "a b",
		`attachment; filename="../../x.zip"`: "x.zip",
		"attachment; filename=\"..\"":        "",
		"not a header;;":                     "",
	}

	for in, want := range tests {
		if got := servedFileName(in); got != want {
			t.Errorf("servedFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWireConversion(t *testing.T) {
	req := models.DownloadRequest{PlaylistName: "p", Items: []models.DownloadItem{{TrackID: "a", SourceURL: "u"}}}
	wire := NewDownloadRequest(req)

	data, _ := json.Marshal(wire)
	if string(data) != `{"playlist_name":"p","tracks":[{"track_id":"a","url":"u"}]}` {
		t.Errorf("unexpected wire body: %s", data)
	}

	back := wire.ToModel()
	if back.PlaylistName != "p" || len(back.Items) != 1 || back.Items[0].SourceURL != "u" {
		t.Errorf("unexpected model: %+v", back)
	}
}
