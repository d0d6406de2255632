package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
)

const downloadColumns = `id, sequence, snapshot_id, playlist_name, track_count, missing_sources, file_path, size_bytes, created_at, deleted_at`

// DownloadRepository implements models.Repository[*models.DownloadRecord] for the download history.
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts a new download record with generated ID and sequence
func (r *DownloadRepository) Create(record *models.DownloadRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "downloads")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO downloads (id, sequence, snapshot_id, playlist_name, track_count, missing_sources, file_path, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		record.SnapshotID(),
		record.PlaylistName(),
		record.TrackCount(),
		record.MissingSources(),
		record.FilePath(),
		record.SizeBytes(),
		record.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	record.SetID(id)
	record.SetSequence(sequence)
	return nil
}

// Get retrieves a download by ID, excluding soft-deleted records
func (r *DownloadRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE id = ? AND deleted_at IS NULL`

	record, err := scanDownload(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("download not found: %s", id)
	}
	return record, err
}

// Delete soft-deletes a download by ID
func (r *DownloadRepository) Delete(id string) error {
	query := `
		UPDATE downloads
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("download not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves downloads newest first, excluding soft-deleted records.
//
// Supported criteria: "playlist_name" (string, exact match), "snapshot_id" (string) and "limit" (int).
func (r *DownloadRepository) List(criteria map[string]any) ([]*models.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE deleted_at IS NULL`
	args := []any{}

	if name, ok := criteria["playlist_name"].(string); ok && name != "" {
		query += " AND playlist_name = ?"
		args = append(args, name)
	}

	if snapshotID, ok := criteria["snapshot_id"].(string); ok && snapshotID != "" {
		query += " AND snapshot_id = ?"
		args = append(args, snapshotID)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		record, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDownload scans a row from [sql.Row] or [sql.Rows] into a [models.DownloadRecord]
func scanDownload(row scanner) (*models.DownloadRecord, error) {
	var (
		id             string
		sequence       int
		snapshotID     string
		playlistName   string
		trackCount     int
		missingSources int
		filePath       string
		sizeBytes      int64
		createdAt      time.Time
		deletedAt      sql.NullTime
	)

	err := row.Scan(&id, &sequence, &snapshotID, &playlistName, &trackCount, &missingSources, &filePath, &sizeBytes, &createdAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreDownloadRecord(id, sequence, snapshotID, playlistName, trackCount, missingSources, filePath, sizeBytes, createdAt, deleted), nil
}

var _ models.Repository[*models.DownloadRecord] = (*DownloadRepository)(nil)
