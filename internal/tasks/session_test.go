package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/shared"
	tu "github.com/desertthunder/plzip/internal/testing"
)

// scriptedSearch answers each link with its own result and optional gate.
type scriptedSearch struct {
	mu      sync.Mutex
	results map[string]models.PlaylistResult
	gates   map[string]chan struct{}
	started chan string
}

func (g *scriptedSearch) Search(ctx context.Context, link string) (*models.PlaylistResult, error) {
	g.mu.Lock()
	result, ok := g.results[link]
	gate := g.gates[link]
	g.mu.Unlock()

	if g.started != nil {
		g.started <- link
	}
	if gate != nil {
		<-gate
	}
	if !ok {
		return nil, &services.ServiceError{Op: "search", Kind: services.KindStructured, Status: http.StatusNotFound, Detail: "playlist not found"}
	}
	return &result, nil
}

// gatedReader blocks its first Read until release is closed.
type gatedReader struct {
	data    []byte
	reading chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *gatedReader) Read(p []byte) (int, error) {
	r.once.Do(func() {
		close(r.reading)
		<-r.release
	})
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func newSession(search services.SearchGateway, download services.DownloadGateway, saver Saver) *Session {
	logger := shared.NewLogger(nil)
	msgs := shared.MessagesFor("en")
	return NewSession(
		NewSearchOrchestrator(nil, search, msgs, logger),
		NewDownloadOrchestrator(download, saver, nil, msgs, logger),
		logger,
	)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSession(t *testing.T) {
	linkA := "https://open.spotify.com/playlist/aaa"
	linkB := "https://open.spotify.com/playlist/bbb"

	t.Run("Edits Require A Snapshot", func(t *testing.T) {
		s := newSession(&tu.SearchGateway{}, &tu.DownloadGateway{}, &tu.Saver{})

		if _, err := s.Select("a", 0); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
		if _, err := s.Remove("a"); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
		if _, err := s.Download(context.Background(), nil); !errors.Is(err, shared.ErrNoSnapshot) {
			t.Errorf("expected ErrNoSnapshot, got %v", err)
		}
	})

	t.Run("Failed Search Keeps Prior Snapshot", func(t *testing.T) {
		gw := &scriptedSearch{results: map[string]models.PlaylistResult{linkA: tu.Playlist("A", 1, "a")}}
		s := newSession(gw, &tu.DownloadGateway{}, &tu.Saver{})

		first, err := s.Search(context.Background(), linkA, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		_, err = s.Search(context.Background(), linkB, nil)
		if err == nil || err.Error() != "playlist not found" {
			t.Errorf("expected structured failure, got %v", err)
		}
		if s.Current() != first {
			t.Error("expected prior snapshot to remain current")
		}
	})

	t.Run("Select And Remove Replace Current", func(t *testing.T) {
		result := tu.Playlist("A", 2, "a", "b")
		s := newSession(&tu.SearchGateway{Result: &result}, &tu.DownloadGateway{}, &tu.Saver{})
		s.Search(context.Background(), linkA, nil)

		if _, err := s.Select("b", 1); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if idx, _ := s.Current().Selected("b"); idx != 1 {
			t.Errorf("expected selection 1, got %d", idx)
		}
		if _, err := s.Select("b", 5); !errors.Is(err, shared.ErrInvalidSelection) {
			t.Errorf("expected ErrInvalidSelection, got %v", err)
		}

		s.Remove("a")
		snap, err := s.Remove("a")
		if err != nil {
			t.Fatalf("expected double remove to be a no-op, got %v", err)
		}
		if snap.Len() != 1 || len(snap.Selection()) != 1 {
			t.Errorf("expected one match and selection, got %d and %d", snap.Len(), len(snap.Selection()))
		}
	})

	t.Run("Older Search Arriving Late Is Not Adopted", func(t *testing.T) {
		gateA := make(chan struct{})
		gw := &scriptedSearch{
			results: map[string]models.PlaylistResult{
				linkA: tu.Playlist("A", 1, "a"),
				linkB: tu.Playlist("B", 1, "b"),
			},
			gates:   map[string]chan struct{}{linkA: gateA},
			started: make(chan string, 2),
		}
		s := newSession(gw, &tu.DownloadGateway{}, &tu.Saver{})

		errA := make(chan error, 1)
		go func() {
			_, err := s.Search(context.Background(), linkA, nil)
			errA <- err
		}()
		<-gw.started

		snapB, err := s.Search(context.Background(), linkB, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		<-gw.started

		close(gateA)
		if err := <-errA; !errors.Is(err, shared.ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
		if s.Current() != snapB {
			t.Errorf("expected newest search to stay current, got %s", s.Current().Name())
		}
	})

	t.Run("Download Of Replaced Snapshot Is Discarded", func(t *testing.T) {
		gw := &scriptedSearch{results: map[string]models.PlaylistResult{
			linkA: tu.Playlist("A", 1, "a"),
			linkB: tu.Playlist("B", 1, "b"),
		}}
		dl := &tu.DownloadGateway{Payload: []byte("PK"), Block: make(chan struct{})}
		saver := &tu.Saver{}
		s := newSession(gw, dl, saver)

		if _, err := s.Search(context.Background(), linkA, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		errc := make(chan error, 1)
		go func() {
			_, err := s.Download(context.Background(), nil)
			errc <- err
		}()
		waitFor(t, func() bool { return dl.Calls() == 1 })
		if !s.Busy() {
			t.Error("expected session to be busy during download")
		}

		if _, err := s.Search(context.Background(), linkB, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(dl.Block)

		err := <-errc
		if !errors.Is(err, shared.ErrStaleSnapshot) {
			t.Errorf("expected ErrStaleSnapshot, got %v", err)
		}
		if err.Error() != shared.MessagesFor("en").StaleDownload {
			t.Errorf("unexpected message %q", err.Error())
		}
		if saver.Count() != 0 {
			t.Error("expected stale archive to be discarded")
		}
		if s.Busy() {
			t.Error("expected busy indicator to be released")
		}
	})

	t.Run("Search Adopted While Saving Discards Archive", func(t *testing.T) {
		search := &scriptedSearch{results: map[string]models.PlaylistResult{
			linkA: tu.Playlist("A", 1, "a"),
			linkB: tu.Playlist("B", 1, "b"),
		}}
		body := &gatedReader{data: []byte("PK\x03\x04"), reading: make(chan struct{}), release: make(chan struct{})}
		dir := t.TempDir()
		s := newSession(search, &tu.DownloadGateway{Body: body}, NewFileSaver(dir))
		if _, err := s.Search(context.Background(), linkA, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		type outcome struct {
			res *DownloadResult
			err error
		}
		done := make(chan outcome, 1)
		go func() {
			res, err := s.Download(context.Background(), nil)
			done <- outcome{res, err}
		}()

		<-body.reading
		if _, err := s.Search(context.Background(), linkB, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(body.release)

		got := <-done
		if got.res != nil || !errors.Is(got.err, shared.ErrStaleSnapshot) {
			t.Fatalf("expected stale discard, got %+v, %v", got.res, got.err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no files left behind, got %d", len(entries))
		}
		if s.Current().Name() != "B" {
			t.Errorf("expected newer snapshot to stay current, got %s", s.Current().Name())
		}
	})

	t.Run("Edits During Download Do Not Discard It", func(t *testing.T) {
		result := tu.Playlist("A", 2, "a")
		dl := &tu.DownloadGateway{Payload: []byte("PK"), Block: make(chan struct{})}
		saver := &tu.Saver{}
		s := newSession(&tu.SearchGateway{Result: &result}, dl, saver)
		s.Search(context.Background(), linkA, nil)

		errc := make(chan error, 1)
		go func() {
			_, err := s.Download(context.Background(), nil)
			errc <- err
		}()
		waitFor(t, func() bool { return dl.Calls() == 1 })

		s.Select("a", 1)
		close(dl.Block)

		if err := <-errc; err != nil {
			t.Errorf("expected download to complete, got %v", err)
		}
		if dl.Last().Items[0].SourceURL != tu.VideoURL("a", 0) {
			t.Error("expected request to use the selection captured at download time")
		}
		if saver.Count() != 1 {
			t.Error("expected archive to be saved")
		}
	})

	t.Run("Busy Released On Failure", func(t *testing.T) {
		s := newSession(&tu.SearchGateway{Err: errors.New("boom")}, &tu.DownloadGateway{}, &tu.Saver{})
		s.Search(context.Background(), linkA, nil)
		s.Search(context.Background(), "bad link", nil)
		if s.Busy() {
			t.Error("expected busy indicator to be released")
		}
	})
}

func TestEndToEnd(t *testing.T) {
	var downloadBody services.DownloadRequest
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"playlist_name": "Road Trip",
				"tracks": []map[string]any{
					{
						"source":     map[string]string{"title": "One", "artists": "A", "id": "t1"},
						"candidates": []map[string]any{{"title": "One", "url": "https://v.test/1a"}},
					},
					{
						"source": map[string]string{"title": "Two", "artists": "B", "id": "t2"},
						"candidates": []map[string]any{
							{"title": "Two", "url": "https://v.test/2a", "views": 1000},
							{"title": "Two (Live)", "url": "https://v.test/2b", "views": nil},
						},
					},
				},
			})
		case "/download":
			if err := json.NewDecoder(r.Body).Decode(&downloadBody); err != nil {
				t.Errorf("failed to decode download body: %v", err)
			}
			w.Header().Set("Content-Type", "application/zip")
			w.Write([]byte("PK\x03\x04"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer backend.Close()

	logger := shared.NewLogger(nil)
	msgs := shared.MessagesFor("en")
	api := services.NewAPIService(backend.URL, nil)
	dir := t.TempDir()

	s := NewSession(
		NewSearchOrchestrator(NewLinkValidator("spotify.com"), services.NewSearchGateway(api, "/search", logger), msgs, logger),
		NewDownloadOrchestrator(services.NewDownloadGateway(api, "/download", logger), NewFileSaver(dir), nil, msgs, logger),
		logger,
	)

	snap, err := s.Search(context.Background(), "https://open.spotify.com/playlist/abc123", nil)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 tracks, got %d", snap.Len())
	}
	for _, id := range []string{"t1", "t2"} {
		if idx, _ := snap.Selected(id); idx != 0 {
			t.Errorf("expected %s to start at 0", id)
		}
	}

	if _, err := s.Select("t2", 1); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	res, err := s.Download(context.Background(), nil)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}

	if len(downloadBody.Tracks) != 2 {
		t.Fatalf("expected 2 tracks sent, got %d", len(downloadBody.Tracks))
	}
	if downloadBody.Tracks[1].URL != "https://v.test/2b" {
		t.Errorf("expected second item to use candidate 1, got %s", downloadBody.Tracks[1].URL)
	}
	tu.AssertFileExists(t, res.Path)
	if got := tu.MustReadFile(t, res.Path); got != "PK\x03\x04" {
		t.Errorf("unexpected archive content %q", got)
	}
}
