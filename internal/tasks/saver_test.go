package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/plzip/internal/models"
	tu "github.com/desertthunder/plzip/internal/testing"
)

func archive(name, body string) *models.Archive {
	return &models.Archive{Name: name, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func TestFileSaver(t *testing.T) {
	t.Run("Writes Into Directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested")
		s := NewFileSaver(dir)

		path, n, err := s.Save(context.Background(), archive("Road Trip.zip", "PK"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if path != filepath.Join(dir, "Road Trip.zip") || n != 2 {
			t.Errorf("unexpected path %s (%d bytes)", path, n)
		}
		if tu.MustReadFile(t, path) != "PK" {
			t.Error("unexpected file content")
		}
	})

	t.Run("Commit Error Discards The Write", func(t *testing.T) {
		dir := t.TempDir()
		s := NewFileSaver(dir)
		veto := errors.New("vetoed")

		committed := false
		path, _, err := s.SaveCommit(context.Background(), archive("Mix.zip", "PK"), func() error {
			committed = true
			return veto
		})
		if !errors.Is(err, veto) || path != "" {
			t.Fatalf("expected commit error, got %q, %v", path, err)
		}
		if !committed {
			t.Error("expected commit to run")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected empty directory, got %d entries", len(entries))
		}
	})

	t.Run("Never Overwrites", func(t *testing.T) {
		dir := t.TempDir()
		s := NewFileSaver(dir)

		first, _, _ := s.Save(context.Background(), archive("Mix.zip", "1"))
		second, _, err := s.Save(context.Background(), archive("Mix.zip", "2"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if second != filepath.Join(dir, "Mix (1).zip") {
			t.Errorf("expected numbered name, got %s", second)
		}
		if tu.MustReadFile(t, first) != "1" || tu.MustReadFile(t, second) != "2" {
			t.Error("expected both archives to be kept")
		}
	})

	t.Run("Sanitizes Names", func(t *testing.T) {
		dir := t.TempDir()
		path, _, err := NewFileSaver(dir).Save(context.Background(), archive("../escape/AC/DC.zip", "x"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("expected file inside %s, got %s", dir, path)
		}
	})

	t.Run("Read Failure Leaves No File", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := NewFileSaver(dir).Save(context.Background(), &models.Archive{Name: "bad.zip", Body: &tu.FCloser{}})
		if err == nil {
			t.Fatal("expected error for failed read")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected no files left behind, got %d", len(entries))
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, _, err := NewFileSaver(t.TempDir()).Save(ctx, archive("a.zip", "x")); err == nil {
			t.Error("expected error for canceled context")
		}
	})

	t.Run("Default Directory", func(t *testing.T) {
		if NewFileSaver("").Dir() != "." {
			t.Error("expected current directory")
		}
	})
}
