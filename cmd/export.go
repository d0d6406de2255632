package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export resolves every link and writes one match table per playlist plus a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	links := cmd.Args().Slice()
	if path := cmd.String("file"); path != "" {
		fromFile, err := readLinks(path)
		if err != nil {
			return err
		}
		links = append(links, fromFile...)
	}
	if len(links) == 0 {
		return fmt.Errorf("%w: give links as arguments or with --file", shared.ErrMissingArgument)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("starting bulk export", "links", len(links), "format", opts.Format)
	r.writePlain("Exporting %d playlists...\n", len(links))

	var result *tasks.BulkExportResult
	err := r.run(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		result, err = r.searchOrchestrator().BulkExport(ctx, progress, links, opts)
		return err
	})
	if result == nil {
		return err
	}

	r.writePlainln("")
	r.writePlainHeader("Export Complete")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Succeeded: %d/%d\n", result.SuccessfulExports, result.TotalLinks)
	if result.FailedExports > 0 {
		r.writePlain("\nFailed %d links:\n", result.FailedExports)
		for _, lr := range result.Results {
			if !lr.Success {
				r.writePlain("  - %s: %v\n", lr.Link, lr.Error)
			}
		}
	}
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}
	return err
}

// readLinks reads one link per line, skipping blank lines and # comments.
func readLinks(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open links file: %w", err)
	}
	defer f.Close()

	var links []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		links = append(links, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read links file: %w", err)
	}
	return links, nil
}
