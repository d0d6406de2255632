// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/plzip/internal/models"
)

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// Candidate builds a [models.CandidateMedia] with only title and url set.
func Candidate(title, url string) models.CandidateMedia {
	return models.CandidateMedia{Title: Ptr(title), SourceURL: Ptr(url)}
}

// Playlist builds a result with one match per id; each track gets n candidates
// whose URLs are "https://video.test/<id>/<index>".
func Playlist(name string, n int, ids ...string) models.PlaylistResult {
	tracks := make([]models.TrackMatch, 0, len(ids))
	for _, id := range ids {
		candidates := make([]models.CandidateMedia, 0, n)
		for i := range n {
			candidates = append(candidates, Candidate(id+" video", VideoURL(id, i)))
		}
		tracks = append(tracks, models.TrackMatch{
			Source:     models.SourceTrackRef{ID: id, Title: "Title " + id, Artists: "Artist " + id},
			Candidates: candidates,
		})
	}
	return models.NewPlaylistResult(name, tracks)
}

// VideoURL is the candidate URL generated by [Playlist].
func VideoURL(id string, i int) string {
	return "https://video.test/" + id + "/" + strconv.Itoa(i)
}

// SearchGateway is a recording test double for the search gateway.
type SearchGateway struct {
	mu     sync.Mutex
	Result *models.PlaylistResult
	Err    error
	Links  []string
	// Block, when set, is waited on before returning; used to order concurrent searches.
	Block chan struct{}
}

func (g *SearchGateway) Search(ctx context.Context, link string) (*models.PlaylistResult, error) {
	g.mu.Lock()
	g.Links = append(g.Links, link)
	block := g.Block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if g.Err != nil {
		return nil, g.Err
	}
	if g.Result == nil {
		return nil, errors.New("no result configured")
	}
	clone := *g.Result
	return &clone, nil
}

// Calls returns how many searches were received.
func (g *SearchGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Links)
}

// DownloadGateway is a recording test double for the download gateway.
type DownloadGateway struct {
	mu       sync.Mutex
	Payload  []byte
	Name     string
	Err      error
	Requests []models.DownloadRequest
	Block    chan struct{}
	// Body, when set, is served instead of Payload with an unknown size.
	Body io.Reader
}

func (g *DownloadGateway) Download(ctx context.Context, req models.DownloadRequest) (*models.Archive, error) {
	g.mu.Lock()
	g.Requests = append(g.Requests, req)
	block := g.Block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if g.Err != nil {
		return nil, g.Err
	}
	name := g.Name
	if name == "" {
		name = req.PlaylistName + ".zip"
	}
	if g.Body != nil {
		return &models.Archive{Name: name, ContentType: "application/zip", Size: -1, Body: io.NopCloser(g.Body)}, nil
	}
	return &models.Archive{
		Name:        name,
		ContentType: "application/zip",
		Size:        int64(len(g.Payload)),
		Body:        io.NopCloser(bytes.NewReader(g.Payload)),
	}, nil
}

// Calls returns how many downloads were received.
func (g *DownloadGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Requests)
}

// Last returns the most recent request.
func (g *DownloadGateway) Last() models.DownloadRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Requests) == 0 {
		return models.DownloadRequest{}
	}
	return g.Requests[len(g.Requests)-1]
}

// Saver is an in-memory archive saver.
type Saver struct {
	mu    sync.Mutex
	Files map[string][]byte
	Err   error
}

func (s *Saver) Save(_ context.Context, archive *models.Archive) (string, int64, error) {
	if s.Err != nil {
		return "", 0, s.Err
	}
	data, err := io.ReadAll(archive.Body)
	if err != nil {
		return "", 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Files == nil {
		s.Files = make(map[string][]byte)
	}
	s.Files[archive.Name] = data
	return archive.Name, int64(len(data)), nil
}

// Count returns how many archives were saved.
func (s *Saver) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Files)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
