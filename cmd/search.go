package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/services"
	"github.com/desertthunder/plzip/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search resolves a playlist link and prints each track with its selected (or every) candidate.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	link, err := requireArg(cmd, "link")
	if err != nil {
		return err
	}

	var snap *tasks.Snapshot
	err = r.run(func(progress chan<- tasks.ProgressUpdate) error {
		var err error
		snap, err = r.searchOrchestrator().Search(ctx, link, progress)
		return err
	})
	if err != nil {
		return err
	}

	result := snap.Result()
	if cmd.Bool("json") {
		if err := r.writeJSON(services.NewSearchResponse(result), cmd.Bool("pretty")); err != nil {
			return err
		}
	} else {
		r.printSnapshot(snap, cmd.Bool("all"))
	}

	if format := cmd.String("export"); format != "" {
		path, err := formatter.WriteExport(format, result, snap.Selection(), cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("match table exported", "playlist", result.Name, "path", path)
		r.writePlain("✓ Exported to %s\n", path)
	}
	return nil
}

func (r *Runner) printSnapshot(snap *tasks.Snapshot, all bool) {
	result := snap.Result()
	r.writePlainln("")
	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", result.Name, len(result.Matches)))

	for i, m := range result.Matches {
		sel, _ := snap.Selected(m.Source.ID)
		r.writePlain("%3d. %s - %s [%s]\n", i+1, m.Source.Artists, m.Source.Title, m.Source.ID)

		for j, c := range m.Candidates {
			if !all && j != sel {
				continue
			}
			marker := " "
			if j == sel {
				marker = "*"
			}
			url, _ := c.URL()
			if url == "" {
				url = formatter.NotAvailable
			}
			r.writePlain("     %s %d) %s • %s • %s • %s views\n        %s\n",
				marker, j,
				formatter.Optional(c.Title),
				formatter.Optional(c.Channel),
				formatter.Optional(c.Duration),
				formatter.FormatViews(c.ViewCount),
				url,
			)
		}
	}

	if len(result.Skipped) > 0 {
		r.writePlainln("Skipped %d tracks:", len(result.Skipped))
		for _, s := range result.Skipped {
			r.writePlain("  - %s - %s (%s)\n", s.Source.Artists, s.Source.Title, s.Reason)
		}
	}
}
