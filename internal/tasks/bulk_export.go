package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/shared"
	"golang.org/x/time/rate"
)

var exportExtensions = map[string]string{
	"csv":      "csv",
	"md":       "md",
	"markdown": "md",
	"txt":      "txt",
	"text":     "txt",
	"json":     "json",
}

// BulkExportOpts contains configuration for bulk match-table exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: plzip_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Searches per second (default: 1)
}

// LinkExportResult is the outcome for one link of a bulk export.
type LinkExportResult struct {
	Link         string   `json:"link"`
	PlaylistName string   `json:"playlist_name,omitempty"`
	Tracks       int      `json:"tracks"`
	Files        []string `json:"files,omitempty"`
	Success      bool     `json:"success"`
	Error        error    `json:"-"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalLinks        int                `json:"total_links"`
	SuccessfulExports int                `json:"successful_exports"`
	FailedExports     int                `json:"failed_exports"`
	OutputDirectory   string             `json:"output_directory"`
	ManifestPath      string             `json:"-"`
	Results           []LinkExportResult `json:"results"`
}

type linkExportJob struct {
	position int
	link     string
}

// BulkExport resolves each link and writes its match table, using the resolver's top candidate for every track.
//
// Searches run on a small worker pool throttled by a shared rate limiter so the external
// service sees at most RateLimit requests per second. Failed links are reported in the result
// and the manifest; they do not stop the export.
func (o *SearchOrchestrator) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, links []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = "json"
	}
	ext, ok := exportExtensions[strings.ToLower(opts.Format)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("plzip_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalLinks:      len(links),
		OutputDirectory: opts.OutputDir,
		Results:         make([]LinkExportResult, 0, len(links)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan linkExportJob, len(links))
	results := make(chan LinkExportResult, len(links))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go o.exportWorker(ctx, &wg, limiter, jobs, results, opts, ext)
	}

	for i, link := range links {
		jobs <- linkExportJob{position: i + 1, link: link}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(links), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(links), res.Link, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, ctx.Err()
}

// exportWorker resolves links from the jobs channel until it is drained or ctx is done.
func (o *SearchOrchestrator) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan linkExportJob,
	results chan<- LinkExportResult,
	opts BulkExportOpts,
	ext string,
) {
	defer wg.Done()

	for job := range jobs {
		res := LinkExportResult{Link: job.link}
		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results <- res
			continue
		}
		results <- o.exportLink(ctx, job, opts, ext)
	}
}

func (o *SearchOrchestrator) exportLink(ctx context.Context, job linkExportJob, opts BulkExportOpts, ext string) LinkExportResult {
	res := LinkExportResult{Link: job.link}

	snap, err := o.Search(ctx, job.link, nil)
	if err != nil {
		res.Error = err
		return res
	}
	res.PlaylistName = snap.Name()
	res.Tracks = snap.Len()

	name := fmt.Sprintf("%02d_%s_tracks.%s", job.position, formatter.SafeFileName(snap.Name()), ext)
	path, err := formatter.WriteExport(opts.Format, snap.Result(), snap.Selection(), filepath.Join(opts.OutputDir, name))
	if err != nil {
		res.Error = err
		return res
	}

	res.Files = []string{path}
	res.Success = true
	return res
}

func writeManifest(result *BulkExportResult, format, path string) error {
	type entry struct {
		LinkExportResult
		Error string `json:"error,omitempty"`
	}
	manifest := struct {
		*BulkExportResult
		Format    string    `json:"format"`
		CreatedAt time.Time `json:"created_at"`
		Results   []entry   `json:"results"`
	}{BulkExportResult: result, Format: format, CreatedAt: time.Now().UTC()}

	for _, r := range result.Results {
		e := entry{LinkExportResult: r}
		if r.Error != nil {
			e.Error = r.Error.Error()
		}
		manifest.Results = append(manifest.Results, e)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
