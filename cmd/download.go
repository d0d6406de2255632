package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/plzip/internal/shared"
	"github.com/desertthunder/plzip/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download resolves a playlist, applies --remove and --select edits and saves the archive.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	link, err := requireArg(cmd, "link")
	if err != nil {
		return err
	}

	selections, err := parseSelections(cmd.StringSlice("select"))
	if err != nil {
		return err
	}

	dir := cmd.String("output")
	if dir == "" {
		dir = r.config.Download.OutputDir
	}

	history, closeHistory := r.history()
	defer closeHistory()
	session := r.session(tasks.NewFileSaver(dir), history)

	var result *tasks.DownloadResult
	err = r.run(func(progress chan<- tasks.ProgressUpdate) error {
		if _, err := session.Search(ctx, link, progress); err != nil {
			return err
		}

		for _, id := range cmd.StringSlice("remove") {
			if _, err := session.Remove(id); err != nil {
				return err
			}
			r.logger.Debug("track removed", "track", id)
		}

		for _, s := range selections {
			if _, err := session.Select(s.trackID, s.index); err != nil {
				return fmt.Errorf("--select %s=%d: %w", s.trackID, s.index, err)
			}
		}

		result, err = session.Download(ctx, progress)
		return err
	})
	if err != nil {
		return err
	}

	r.writePlainln("✓ Saved %s (%d bytes, %d tracks)", result.Path, result.Size, len(result.Request.Items))
	if result.MissingSources > 0 {
		r.writePlain("  %d tracks had no source URL and were sent empty\n", result.MissingSources)
	}
	return nil
}

type selection struct {
	trackID string
	index   int
}

// parseSelections parses TRACK_ID=INDEX pairs, keeping their order.
func parseSelections(values []string) ([]selection, error) {
	out := make([]selection, 0, len(values))
	for _, v := range values {
		id, idx, ok := strings.Cut(v, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: --select %q must be TRACK_ID=INDEX", shared.ErrInvalidArgument, v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: --select %q has an invalid index", shared.ErrInvalidArgument, v)
		}
		out = append(out, selection{trackID: id, index: n})
	}
	return out, nil
}
