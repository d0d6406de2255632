package repositories

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func newRecord(name string) *models.DownloadRecord {
	return models.NewDownloadRecord("snap-1", name, 3, 1, "/tmp/"+name+".zip", 1024)
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "downloads")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for table without sequence")
	}
}

func TestDownloadRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		record := newRecord("Road Trip")

		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create download: %v", err)
		}
		if record.ID() == "" {
			t.Error("download ID should be set after creation")
		}
		if record.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", record.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		record := newRecord("Road Trip")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create download: %v", err)
		}

		retrieved, err := repo.Get(record.ID())
		if err != nil {
			t.Fatalf("failed to get download: %v", err)
		}

		if retrieved.PlaylistName() != "Road Trip" || retrieved.SnapshotID() != "snap-1" {
			t.Errorf("unexpected record: %s / %s", retrieved.PlaylistName(), retrieved.SnapshotID())
		}
		if retrieved.TrackCount() != 3 || retrieved.MissingSources() != 1 || retrieved.SizeBytes() != 1024 {
			t.Errorf("unexpected counts: %d %d %d", retrieved.TrackCount(), retrieved.MissingSources(), retrieved.SizeBytes())
		}
		if retrieved.FilePath() != "/tmp/Road Trip.zip" {
			t.Errorf("unexpected path %s", retrieved.FilePath())
		}
		if retrieved.DeletedAt() != nil {
			t.Error("expected record not to be deleted")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		for _, name := range []string{"One", "Two", "Three", "Two"} {
			if err := repo.Create(newRecord(name)); err != nil {
				t.Fatalf("failed to create download: %v", err)
			}
		}

		t.Run("Newest First", func(t *testing.T) {
			records, err := repo.List(nil)
			if err != nil {
				t.Fatalf("failed to list downloads: %v", err)
			}
			if len(records) != 4 {
				t.Fatalf("expected 4 records, got %d", len(records))
			}
			if records[0].Sequence() != 4 || records[3].Sequence() != 1 {
				t.Errorf("expected descending sequence, got %d..%d", records[0].Sequence(), records[3].Sequence())
			}
		})

		t.Run("By Playlist Name", func(t *testing.T) {
			records, _ := repo.List(map[string]any{"playlist_name": "Two"})
			if len(records) != 2 {
				t.Errorf("expected 2 records, got %d", len(records))
			}
		})

		t.Run("With Limit", func(t *testing.T) {
			records, _ := repo.List(map[string]any{"limit": 2})
			if len(records) != 2 {
				t.Errorf("expected 2 records, got %d", len(records))
			}
		})

		t.Run("By Snapshot", func(t *testing.T) {
			records, _ := repo.List(map[string]any{"snapshot_id": "other"})
			if len(records) != 0 {
				t.Errorf("expected no records, got %d", len(records))
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewDownloadRepository(db)
		record := newRecord("Road Trip")
		if err := repo.Create(record); err != nil {
			t.Fatalf("failed to create download: %v", err)
		}

		if err := repo.Delete(record.ID()); err != nil {
			t.Fatalf("failed to delete download: %v", err)
		}
		if _, err := repo.Get(record.ID()); err == nil {
			t.Error("expected deleted record to be hidden")
		}
		records, _ := repo.List(nil)
		if len(records) != 0 {
			t.Errorf("expected deleted record to be excluded, got %d", len(records))
		}
	})
}

func TestDownloadRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewDownloadRepository(db)
			record := models.NewDownloadRecord("snap", "", 1, 0, "/tmp/x.zip", 1)

			if err := repo.Create(record); err == nil || !strings.Contains(err.Error(), "validation failed") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})

		t.Run("InvalidCounts", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			record := models.NewDownloadRecord("snap", "Mix", 1, 2, "/tmp/x.zip", 1)
			if err := NewDownloadRepository(db).Create(record); err == nil {
				t.Fatal("expected error when missing sources exceed tracks")
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			if err := NewDownloadRepository(db).Create(newRecord("Mix")); err == nil {
				t.Fatal("expected error for closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := NewDownloadRepository(db).Get("nonexistent-id")
			if err == nil || !strings.Contains(err.Error(), "download not found") {
				t.Fatalf("expected not found error, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewDownloadRepository(db).Delete("nonexistent-id"); err == nil {
				t.Fatal("expected error when deleting nonexistent download")
			}
		})

		t.Run("AlreadyDeleted", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewDownloadRepository(db)
			record := newRecord("Mix")
			repo.Create(record)
			repo.Delete(record.ID())

			if err := repo.Delete(record.ID()); err == nil {
				t.Fatal("expected error when deleting twice")
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			if _, err := NewDownloadRepository(db).List(nil); err == nil {
				t.Fatal("expected error for closed database")
			}
		})
	})
}
