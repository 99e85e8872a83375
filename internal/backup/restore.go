package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/metrics"
)

type RestoreOptions struct {
	SkipData   bool
	SkipMedia  bool
	SkipStatic bool
}

type RestoreReport struct {
	Manifest    *Manifest      `json:"manifest"`
	Tables      map[string]int `json:"tables,omitempty"`
	MediaFiles  int            `json:"media_files"`
	StaticFiles int            `json:"static_files"`
}

// swap moves a staged directory over a live one, keeping the live copy
// until the restore commits. keep names a directory below target (the
// backups dir) that travels with the live tree instead of being replaced.
type swap struct {
	target  string
	staging string
	backup  string
	keep    string
	hadOld  bool
	moved   bool
	swapped bool
}

func newSwap(target string) *swap {
	id := uuid.NewString()
	dir, base := filepath.Dir(target), filepath.Base(target)
	return &swap{
		target:  target,
		staging: filepath.Join(dir, "."+base+".restore-"+id),
		backup:  filepath.Join(dir, "."+base+".bak-"+id),
	}
}

func (s *swap) apply() error {
	if _, err := os.Lstat(s.target); err == nil {
		if err := os.Rename(s.target, s.backup); err != nil {
			return fmt.Errorf("backup: move %s aside: %w", s.target, err)
		}
		s.hadOld = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := s.carry(s.backup, s.staging); err != nil {
		s.undo()
		return err
	}

	if err := os.Rename(s.staging, s.target); err != nil {
		s.undo()
		return fmt.Errorf("backup: move %s into place: %w", s.target, err)
	}
	s.swapped = true
	return nil
}

// carry moves the kept directory from one tree to the other.
func (s *swap) carry(from, to string) error {
	if s.keep == "" {
		return nil
	}
	src, dst := filepath.Join(from, s.keep), filepath.Join(to, s.keep)
	if _, err := os.Lstat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dst); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("backup: move %s: %w", src, err)
	}
	s.moved = from == s.backup
	return nil
}

// undo reverts a partial apply.
func (s *swap) undo() {
	if s.moved {
		_ = s.carry(s.staging, s.backup)
	}
	if s.hadOld {
		_ = os.Rename(s.backup, s.target)
		s.hadOld = false
	}
}

func (s *swap) rollback() {
	if s.swapped {
		if s.moved {
			_ = s.carry(s.target, s.backup)
		}
		_ = os.RemoveAll(s.target)
		s.swapped = false
	}
	if s.hadOld {
		_ = os.Rename(s.backup, s.target)
		s.hadOld = false
	}
}

// cleanup drops the staging dir and, once committed, the kept copy.
func (s *swap) cleanup() {
	_ = os.RemoveAll(s.staging)
	if s.swapped && s.hadOld {
		_ = os.RemoveAll(s.backup)
	}
}

// Restore replaces the database contents and the media and static
// directories with the contents of the archive at path. Directories are
// staged first and swapped in; when the database step fails the previous
// directories are put back and the database is left as it was.
func (e *Engine) Restore(ctx context.Context, a actor.Actor, path string, opts RestoreOptions) (report *RestoreReport, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackup("restore", err, time.Since(start)) }()

	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrInsecurePath) {
			if zr != nil {
				zr.Close()
			}
			return nil, fmt.Errorf("%w: %v", ErrUnsafeEntry, err)
		}
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("backup: open archive: %w", err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if !safeEntry(f.Name) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeEntry, f.Name)
		}
		entries[f.Name] = f
	}

	m, err := readManifest(entries)
	if err != nil {
		return nil, err
	}
	report = &RestoreReport{Manifest: m}

	var data map[string]any
	if !opts.SkipData {
		rc, err := entries[DataEntry].Open()
		if err != nil {
			return nil, fmt.Errorf("backup: read data export: %w", err)
		}
		data, err = decodeData(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}

	var swaps []*swap
	defer func() {
		for _, s := range swaps {
			if err != nil {
				s.rollback()
			}
			s.cleanup()
		}
	}()

	stage := func(target, prefix string) (int, error) {
		if target == "" || !hasPrefix(zr.File, prefix) {
			return 0, nil
		}
		s := newSwap(target)
		keep, err := nestedDir(target, e.opts.Dir)
		if err != nil {
			return 0, err
		}
		s.keep = keep
		swaps = append(swaps, s)
		if err := os.MkdirAll(s.staging, 0o755); err != nil {
			return 0, fmt.Errorf("backup: staging dir: %w", err)
		}
		n, err := extractPrefix(zr.File, prefix, s.staging)
		if err != nil {
			return 0, fmt.Errorf("backup: stage %s: %w", prefix, err)
		}
		return n, nil
	}

	if !opts.SkipMedia {
		if report.MediaFiles, err = stage(e.opts.MediaRoot, mediaDir); err != nil {
			return nil, err
		}
	}
	if !opts.SkipStatic {
		for _, dir := range e.opts.StaticDirs {
			n, serr := stage(dir, staticDir+filepath.Base(filepath.Clean(dir))+"/")
			if serr != nil {
				err = serr
				return nil, err
			}
			report.StaticFiles += n
		}
	}

	for _, s := range swaps {
		if err = s.apply(); err != nil {
			return nil, err
		}
	}

	if data != nil {
		if report.Tables, err = replaceTables(ctx, e.db, data); err != nil {
			return nil, err
		}
	}

	e.opts.Audit.Dispatch(audit.Event{
		Actor:  a,
		Action: "backup_restored",
		Entity: "backup",
		Metadata: map[string]any{
			"archive":    filepath.Base(path),
			"created_at": m.CreatedAt,
			"tables":     report.Tables,
			"media":      report.MediaFiles,
			"static":     report.StaticFiles,
		},
	})
	e.opts.Log.WithFields(logrus.Fields{
		"archive": filepath.Base(path),
		"actor":   a.String(),
	}).Info("backup restored")

	return report, nil
}

// nestedDir returns dir relative to root when dir lies inside root.
func nestedDir(root, dir string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", nil
	}
	if rel == "." {
		return "", fmt.Errorf("backup: backups directory %s cannot be restored over", root)
	}
	return rel, nil
}
