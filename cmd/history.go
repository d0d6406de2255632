package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/repositories"
	"github.com/desertthunder/plzip/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryEntry is the JSON form of a [models.DownloadRecord].
type HistoryEntry struct {
	ID             string    `json:"id"`
	Sequence       int       `json:"sequence"`
	PlaylistName   string    `json:"playlist_name"`
	TrackCount     int       `json:"track_count"`
	MissingSources int       `json:"missing_sources"`
	FilePath       string    `json:"file_path"`
	SizeBytes      int64     `json:"size_bytes"`
	SnapshotID     string    `json:"snapshot_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func newHistoryEntry(rec *models.DownloadRecord) HistoryEntry {
	return HistoryEntry{
		ID:             rec.ID(),
		Sequence:       rec.Sequence(),
		PlaylistName:   rec.PlaylistName(),
		TrackCount:     rec.TrackCount(),
		MissingSources: rec.MissingSources(),
		FilePath:       rec.FilePath(),
		SizeBytes:      rec.SizeBytes(),
		SnapshotID:     rec.SnapshotID(),
		CreatedAt:      rec.CreatedAt(),
	}
}

func (r *Runner) repository() (*repositories.DownloadRepository, func(), error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return repositories.NewDownloadRepository(db), func() { db.Close() }, nil
}

// HistoryList prints saved archives, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeRepo, err := r.repository()
	if err != nil {
		return err
	}
	defer closeRepo()

	records, err := repo.List(map[string]any{
		"playlist_name": cmd.String("playlist"),
		"limit":         int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]HistoryEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, newHistoryEntry(rec))
		}
		return r.writeJSON(entries, true)
	}

	if len(records) == 0 {
		r.writePlain("No downloads yet\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Downloads (%d)", len(records)))
	for _, rec := range records {
		r.writePlain("%4d  %s  %-30s %3d tracks  %s\n",
			rec.Sequence(),
			rec.CreatedAt().Local().Format("2006-01-02 15:04"),
			rec.PlaylistName(),
			rec.TrackCount(),
			rec.FilePath(),
		)
	}
	return nil
}

// HistoryShow prints one download as JSON.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	repo, closeRepo, err := r.repository()
	if err != nil {
		return err
	}
	defer closeRepo()

	rec, err := repo.Get(id)
	if err != nil {
		return err
	}
	return r.writeJSON(newHistoryEntry(rec), true)
}

// HistoryDelete removes a download from the history. The archive file is left alone.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	repo, closeRepo, err := r.repository()
	if err != nil {
		return err
	}
	defer closeRepo()

	if err := repo.Delete(id); err != nil {
		return err
	}
	r.logger.Info("download removed from history", "id", id)
	r.writePlain("✓ Removed %s\n", id)
	return nil
}

// HistoryReset rolls back every applied migration and applies them again, leaving an empty history.
func (r *Runner) HistoryReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("force") {
		r.writePlain("This deletes every history entry. Run again with --force to confirm.\n")
		return nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer db.Close()

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for range applied {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
	}
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("history reset", "path", r.config.Database.Path, "migrations", applied)
	r.writePlain("✓ History reset (%d migrations reapplied)\n", applied)
	return nil
}
