package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/models"
)

// CommitSaver is a [Saver] that runs commit after the archive is written and before it
// becomes visible. A commit error discards the written data and is returned as is.
type CommitSaver interface {
	Saver
	SaveCommit(ctx context.Context, archive *models.Archive, commit func() error) (string, int64, error)
}

// FileSaver writes archives into a directory.
//
// Names are sanitized and never overwrite an existing file: "Mix.zip" becomes "Mix (1).zip".
type FileSaver struct {
	dir string
}

// NewFileSaver creates a saver for dir (default ".").
func NewFileSaver(dir string) *FileSaver {
	if dir == "" {
		dir = "."
	}
	return &FileSaver{dir: dir}
}

// Dir returns the output directory.
func (s *FileSaver) Dir() string { return s.dir }

// Save streams the archive into a temporary file and renames it into place once complete.
func (s *FileSaver) Save(ctx context.Context, archive *models.Archive) (string, int64, error) {
	return s.SaveCommit(ctx, archive, nil)
}

// SaveCommit is [FileSaver.Save] with a commit check between the write and the rename.
func (s *FileSaver) SaveCommit(ctx context.Context, archive *models.Archive, commit func() error) (string, int64, error) {
	defer archive.Body.Close()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".plzip-*.part")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, ctxReader{ctx: ctx, r: archive.Body})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to write archive: %w", err)
	}
	if commit != nil {
		if err := commit(); err != nil {
			return "", 0, err
		}
	}

	path, err := s.uniquePath(formatter.SafeFileName(archive.Name))
	if err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", 0, fmt.Errorf("failed to move archive into place: %w", err)
	}
	return path, n, nil
}

func (s *FileSaver) uniquePath(name string) (string, error) {
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; i < 1000; i++ {
		path = filepath.Join(s.dir, fmt.Sprintf("%s (%d)%s", base, i, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("too many files named %s in %s", name, s.dir)
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
