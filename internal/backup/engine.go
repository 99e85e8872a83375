package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/audit"
	"github.com/BruksfildServices01/clinic-pos/internal/metrics"
)

// Uploader stores a copy of a finished archive off-site.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64) error
}

type Options struct {
	Dir        string
	Prefix     string
	MediaRoot  string
	StaticDirs []string
	// SQLitePath names the live database file; its base name is used for
	// the snapshot entry. Empty falls back to "db.sqlite3".
	SQLitePath string

	Uploader Uploader
	Audit    *audit.Dispatcher
	Log      logrus.FieldLogger
}

type Engine struct {
	db   *gorm.DB
	opts Options
	list *regexp.Regexp
	now  func() time.Time
}

// Info describes one archive in the backups directory.
type Info struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modified_at"`
	Uploaded bool      `json:"uploaded,omitempty"`

	// UploadErr is set when the off-site copy failed. The local archive
	// is still in place.
	UploadErr error `json:"-"`
}

func New(db *gorm.DB, opts Options) *Engine {
	if opts.Prefix == "" {
		opts.Prefix = "clinic"
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Engine{
		db:   db,
		opts: opts,
		list: listPattern(opts.Prefix),
		now:  time.Now,
	}
}

func (e *Engine) Dir() string { return e.opts.Dir }

// ======================================================
// CREATE
// ======================================================

func (e *Engine) Create(ctx context.Context, a actor.Actor) (info Info, err error) {
	start := time.Now()
	defer func() { metrics.RecordBackup("create", err, time.Since(start)) }()

	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return Info{}, fmt.Errorf("backup: create directory: %w", err)
	}

	now := e.now()
	name := FileName(e.opts.Prefix, now)
	final := filepath.Join(e.opts.Dir, name)
	if _, err := os.Lstat(final); err == nil {
		return Info{}, ErrExists
	}

	// The hidden temp name never matches the listing pattern.
	tmp, err := os.CreateTemp(e.opts.Dir, ".creating-*")
	if err != nil {
		return Info{}, fmt.Errorf("backup: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	m, err := e.writeArchive(ctx, tmp, a, name, now)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("backup: close archive: %w", cerr)
	}
	if err != nil {
		return Info{}, err
	}

	if err := os.Link(tmpName, final); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Info{}, ErrExists
		}
		return Info{}, fmt.Errorf("backup: publish archive: %w", err)
	}

	st, err := os.Stat(final)
	if err != nil {
		return Info{}, fmt.Errorf("backup: stat archive: %w", err)
	}
	info = Info{Name: name, Size: st.Size(), ModTime: st.ModTime()}
	metrics.SetLastArchiveSize(st.Size())

	if e.opts.Uploader != nil {
		info.UploadErr = e.upload(ctx, final, name, st.Size())
		info.Uploaded = info.UploadErr == nil
	}

	e.opts.Audit.Dispatch(audit.Event{
		Actor:  a,
		Action: "backup_created",
		Entity: "backup",
		Metadata: map[string]any{
			"name":   name,
			"size":   st.Size(),
			"tables": m.Tables,
			"files":  m.Files,
		},
	})
	e.opts.Log.WithFields(logrus.Fields{
		"name":  name,
		"size":  st.Size(),
		"actor": a.String(),
	}).Info("backup created")

	return info, nil
}

func (e *Engine) upload(ctx context.Context, path, name string, size int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordBackup("upload", err, time.Since(start)) }()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := e.opts.Uploader.Upload(ctx, name, f, size); err != nil {
		e.opts.Log.WithError(err).WithField("name", name).Warn("backup upload failed")
		return err
	}
	return nil
}

func (e *Engine) writeArchive(ctx context.Context, w io.Writer, a actor.Actor, name string, now time.Time) (*Manifest, error) {
	zw := zip.NewWriter(w)
	m := newManifest(a.String(), e.db.Dialector.Name(), now)

	// data_export.json
	dw, err := zw.CreateHeader(fileHeader(DataEntry, now))
	if err != nil {
		return nil, err
	}
	counts, err := exportData(ctx, e.db, dw, now)
	if err != nil {
		return nil, err
	}
	m.Tables = counts

	// database/<file>
	if m.Dialect == "sqlite" {
		entry, err := e.addSnapshot(ctx, zw, now)
		if err != nil {
			return nil, err
		}
		m.Database = entry
	}

	// media/ and static/<dir>/
	skip, _ := filepath.Abs(e.opts.Dir)
	n, err := addTree(ctx, zw, e.opts.MediaRoot, strings.TrimSuffix(mediaDir, "/"), skip, now)
	if err != nil {
		return nil, err
	}
	m.Files["media"] = n

	static := 0
	for _, dir := range e.opts.StaticDirs {
		n, err := addTree(ctx, zw, dir, staticDir+filepath.Base(filepath.Clean(dir)), skip, now)
		if err != nil {
			return nil, err
		}
		static += n
	}
	m.Files["static"] = static

	if err := writeEntry(zw, RequirementsEntry, requirements(m), now); err != nil {
		return nil, err
	}
	if err := writeEntry(zw, InfoEntry, backupInfo(m, name), now); err != nil {
		return nil, err
	}

	mb, err := jsonIndent(m)
	if err != nil {
		return nil, err
	}
	if err := writeEntry(zw, ManifestEntry, mb, now); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("backup: finish archive: %w", err)
	}
	return m, nil
}

// addSnapshot copies a consistent image of the sqlite database into the
// archive using VACUUM INTO.
func (e *Engine) addSnapshot(ctx context.Context, zw *zip.Writer, now time.Time) (string, error) {
	tmpDir, err := os.MkdirTemp(e.opts.Dir, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("backup: snapshot dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	base := "db.sqlite3"
	if e.opts.SQLitePath != "" {
		base = filepath.Base(e.opts.SQLitePath)
	}
	target := filepath.Join(tmpDir, base)

	stmt := "VACUUM INTO '" + strings.ReplaceAll(target, "'", "''") + "'"
	if err := e.db.WithContext(ctx).Exec(stmt).Error; err != nil {
		return "", fmt.Errorf("backup: snapshot database: %w", err)
	}

	entry := databaseDir + base
	if err := copyFileEntry(zw, target, entry, now); err != nil {
		return "", err
	}
	return entry, nil
}

// ======================================================
// LIST / RESOLVE / OPEN / DELETE
// ======================================================

// List returns the archives in the backups directory, newest first.
func (e *Engine) List() ([]Info, error) {
	entries, err := os.ReadDir(e.opts.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	var out []Info
	for _, ent := range entries {
		if !e.list.MatchString(ent.Name()) {
			continue
		}
		fi, err := ent.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		out = append(out, Info{Name: ent.Name(), Size: fi.Size(), ModTime: fi.ModTime()})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

// Resolve maps a user-supplied name to a regular file inside the backups
// directory. Names failing the pattern or escaping the directory through a
// symlink yield ErrInvalidName; missing files yield ErrNotFound.
func (e *Engine) Resolve(name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}

	path := filepath.Join(e.opts.Dir, name)
	st, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("backup: stat %s: %w", name, err)
	}

	realDir, err := filepath.EvalSymlinks(e.opts.Dir)
	if err != nil {
		return "", fmt.Errorf("backup: resolve directory: %w", err)
	}
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("backup: resolve %s: %w", name, err)
	}
	if !within(realDir, realPath) {
		return "", ErrInvalidName
	}

	if st.Mode()&fs.ModeSymlink != 0 {
		if st, err = os.Stat(realPath); err != nil {
			return "", ErrNotFound
		}
	}
	if !st.Mode().IsRegular() {
		return "", ErrNotFound
	}
	return realPath, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Open returns the archive for streaming. The caller closes the file.
func (e *Engine) Open(name string) (*os.File, fs.FileInfo, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("backup: open %s: %w", name, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("backup: stat %s: %w", name, err)
	}
	metrics.RecordBackup("download", nil, 0)
	return f, st, nil
}

func (e *Engine) Delete(ctx context.Context, a actor.Actor, name string) (err error) {
	defer func() { metrics.RecordBackup("delete", err, 0) }()

	if _, err := e.Resolve(name); err != nil {
		return err
	}

	// Remove the directory entry itself, not a symlink target.
	if err := os.Remove(filepath.Join(e.opts.Dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("backup: delete %s: %w", name, err)
	}

	e.opts.Audit.Dispatch(audit.Event{
		Actor:    a,
		Action:   "backup_deleted",
		Entity:   "backup",
		Metadata: map[string]any{"name": name},
	})
	e.opts.Log.WithFields(logrus.Fields{"name": name, "actor": a.String()}).Info("backup deleted")
	return nil
}
