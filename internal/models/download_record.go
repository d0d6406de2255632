package models

import (
	"fmt"
	"time"
)

// DownloadRecord is one saved archive in the download history.
type DownloadRecord struct {
	id             string
	sequence       int
	snapshotID     string
	playlistName   string
	trackCount     int
	missingSources int
	filePath       string
	sizeBytes      int64
	createdAt      time.Time
	deletedAt      *time.Time
}

// NewDownloadRecord creates an unsaved record; the repository assigns id and sequence.
func NewDownloadRecord(snapshotID, playlistName string, trackCount, missingSources int, filePath string, sizeBytes int64) *DownloadRecord {
	return &DownloadRecord{
		snapshotID:     snapshotID,
		playlistName:   playlistName,
		trackCount:     trackCount,
		missingSources: missingSources,
		filePath:       filePath,
		sizeBytes:      sizeBytes,
		createdAt:      time.Now().UTC(),
	}
}

// RestoreDownloadRecord rebuilds a record read from storage.
func RestoreDownloadRecord(id string, sequence int, snapshotID, playlistName string, trackCount, missingSources int, filePath string, sizeBytes int64, createdAt time.Time, deletedAt *time.Time) *DownloadRecord {
	return &DownloadRecord{
		id:             id,
		sequence:       sequence,
		snapshotID:     snapshotID,
		playlistName:   playlistName,
		trackCount:     trackCount,
		missingSources: missingSources,
		filePath:       filePath,
		sizeBytes:      sizeBytes,
		createdAt:      createdAt,
		deletedAt:      deletedAt,
	}
}

func (r *DownloadRecord) ID() string               { return r.id }
func (r *DownloadRecord) Sequence() int            { return r.sequence }
func (r *DownloadRecord) SnapshotID() string       { return r.snapshotID }
func (r *DownloadRecord) PlaylistName() string     { return r.playlistName }
func (r *DownloadRecord) TrackCount() int          { return r.trackCount }
func (r *DownloadRecord) MissingSources() int      { return r.missingSources }
func (r *DownloadRecord) FilePath() string         { return r.filePath }
func (r *DownloadRecord) SizeBytes() int64         { return r.sizeBytes }
func (r *DownloadRecord) CreatedAt() time.Time     { return r.createdAt }
func (r *DownloadRecord) DeletedAt() *time.Time    { return r.deletedAt }
func (r *DownloadRecord) SetID(id string)          { r.id = id }
func (r *DownloadRecord) SetSequence(sequence int) { r.sequence = sequence }

// Validate checks required fields.
func (r *DownloadRecord) Validate() error {
	if r.playlistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	if r.filePath == "" {
		return fmt.Errorf("file path is required")
	}
	if r.trackCount < 0 || r.missingSources < 0 || r.missingSources > r.trackCount {
		return fmt.Errorf("invalid track counts: %d tracks, %d missing", r.trackCount, r.missingSources)
	}
	return nil
}
