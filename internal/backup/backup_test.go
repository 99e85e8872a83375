package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-pos/internal/actor"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
	"github.com/BruksfildServices01/clinic-pos/internal/testutil"
)

var admin = actor.Actor{UserID: 1, Username: "admin", Superuser: true}

type fixture struct {
	db     *gorm.DB
	engine *Engine
	root   string
	dir    string
	media  string
	static string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	root := t.TempDir()

	f := &fixture{
		db:     db,
		root:   root,
		dir:    filepath.Join(root, "backups"),
		media:  filepath.Join(root, "media"),
		static: filepath.Join(root, "static"),
	}
	writeFile(t, filepath.Join(f.media, "clients", "1", "photo.webp"), "webp-bytes")
	writeFile(t, filepath.Join(f.static, "app.css"), "body{}")

	log := logrus.New()
	log.SetOutput(io.Discard)

	f.engine = New(db, Options{
		Dir:        f.dir,
		Prefix:     "clinic",
		MediaRoot:  f.media,
		StaticDirs: []string{f.static},
		Log:        log,
	})
	f.engine.now = func() time.Time { return time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC) }
	return f
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// ------------------------------------------------------
// names
// ------------------------------------------------------

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("backup_2024-01-01.zip"))
	assert.True(t, ValidName("clinic_backup_2024-01-01_10-30-00.zip"))

	for _, name := range []string{
		"../../etc/passwd",
		"backup;rm -rf.zip",
		"backup.tar.gz",
		"sub/backup.zip",
		"",
	} {
		assert.False(t, ValidName(name), name)
	}
}

func TestFileNameMatchesListPattern(t *testing.T) {
	name := FileName("clinic", time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC))
	assert.Equal(t, "clinic_backup_2024-03-05_07-08-09.zip", name)
	assert.True(t, listPattern("clinic").MatchString(name))
	assert.False(t, listPattern("clinic").MatchString(".creating-123"))
}

func TestResolve(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.dir, 0o755))

	_, err := f.engine.Resolve("../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = f.engine.Resolve("clinic_backup_2024-01-01_00-00-00.zip")
	assert.ErrorIs(t, err, ErrNotFound)

	outside := filepath.Join(f.root, "secret.zip")
	writeFile(t, outside, "secret")
	require.NoError(t, os.Symlink(outside, filepath.Join(f.dir, "clinic_backup_2024-01-01_00-00-00.zip")))

	_, err = f.engine.Resolve("clinic_backup_2024-01-01_00-00-00.zip")
	assert.ErrorIs(t, err, ErrInvalidName)

	require.NoError(t, os.Mkdir(filepath.Join(f.dir, "folder.zip"), 0o755))
	_, err = f.engine.Resolve("folder.zip")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ------------------------------------------------------
// lifecycle
// ------------------------------------------------------

func TestCreateListDownloadDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.Client(t, f.db)

	info, err := f.engine.Create(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, "clinic_backup_2024-01-01_10-30-00.zip", info.Name)
	assert.Positive(t, info.Size)

	// No temp or snapshot leftovers next to the archive.
	assert.Equal(t, []string{info.Name}, dirNames(t, f.dir))

	list, err := f.engine.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, info.Name, list[0].Name)

	file, st, err := f.engine.Open(info.Name)
	require.NoError(t, err)
	got, err := io.ReadAll(file)
	file.Close()
	require.NoError(t, err)

	onDisk, err := os.ReadFile(filepath.Join(f.dir, info.Name))
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)
	assert.Equal(t, int64(len(onDisk)), st.Size())

	zr, err := zip.NewReader(bytes.NewReader(onDisk), int64(len(onDisk)))
	require.NoError(t, err)
	var names []string
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.Contains(t, names, ManifestEntry)
	assert.Contains(t, names, DataEntry)
	assert.Contains(t, names, RequirementsEntry)
	assert.Contains(t, names, InfoEntry)
	assert.Contains(t, names, "database/db.sqlite3")
	assert.Contains(t, names, "media/clients/1/photo.webp")
	assert.Contains(t, names, "static/static/app.css")

	require.NoError(t, f.engine.Delete(ctx, admin, info.Name))

	_, _, err = f.engine.Open(info.Name)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err = f.engine.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

type recordingUploader struct {
	key  string
	body []byte
	err  error
}

func (u *recordingUploader) Upload(_ context.Context, key string, r io.Reader, _ int64) error {
	u.key = key
	u.body, _ = io.ReadAll(r)
	return u.err
}

func TestCreateUploadsOffsite(t *testing.T) {
	f := newFixture(t)
	up := &recordingUploader{}
	f.engine.opts.Uploader = up

	info, err := f.engine.Create(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, info.Uploaded)
	assert.NoError(t, info.UploadErr)
	assert.Equal(t, info.Name, up.key)

	onDisk, err := os.ReadFile(filepath.Join(f.dir, info.Name))
	require.NoError(t, err)
	assert.Equal(t, onDisk, up.body)
}

func TestCreateKeepsArchiveWhenUploadFails(t *testing.T) {
	f := newFixture(t)
	f.engine.opts.Uploader = &recordingUploader{err: errors.New("bucket unreachable")}

	info, err := f.engine.Create(context.Background(), admin)
	require.NoError(t, err)
	assert.False(t, info.Uploaded)
	assert.EqualError(t, info.UploadErr, "bucket unreachable")

	list, err := f.engine.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateNameCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Create(ctx, admin)
	require.NoError(t, err)

	_, err = f.engine.Create(ctx, admin)
	assert.ErrorIs(t, err, ErrExists)

	list, err := f.engine.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListNewestFirstIgnoresOtherFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.dir, 0o755))

	old := filepath.Join(f.dir, "clinic_backup_2023-01-01_00-00-00.zip")
	recent := filepath.Join(f.dir, "clinic_backup_2024-01-01_00-00-00.zip")
	writeFile(t, old, "a")
	writeFile(t, recent, "b")
	writeFile(t, filepath.Join(f.dir, ".creating-42"), "partial")
	writeFile(t, filepath.Join(f.dir, "notes.txt"), "x")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(old, base, base))
	require.NoError(t, os.Chtimes(recent, base.Add(time.Hour), base.Add(time.Hour)))

	list, err := f.engine.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, filepath.Base(recent), list[0].Name)
	assert.Equal(t, filepath.Base(old), list[1].Name)
}

func TestDeleteMissingLeavesDirectoryUnchanged(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(f.dir, 0o755))
	writeFile(t, filepath.Join(f.dir, "clinic_backup_2023-01-01_00-00-00.zip"), "keep")

	before := dirNames(t, f.dir)
	err := f.engine.Delete(context.Background(), admin, "clinic_backup_2024-01-01_00-00-00.zip")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, dirNames(t, f.dir))

	err = f.engine.Delete(context.Background(), admin, "../clinic.zip")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Equal(t, before, dirNames(t, f.dir))
}

// ------------------------------------------------------
// restore
// ------------------------------------------------------

func TestRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client := testutil.Client(t, f.db)
	svc := testutil.Service(t, f.db, "Laser", 6)
	pkg := testutil.Package(t, f.db, "Glow", 6, true, *svc)
	testutil.MustCreate(t, f.db, &models.ClientPackage{
		ClientID:        client.ID,
		PackageID:       pkg.ID,
		SessionProgress: models.SessionProgress{TotalSessions: 6, SessionsCompleted: 2},
		AssignedAt:      time.Now().UTC(),
	})
	testutil.MustCreate(t, f.db, &models.User{Username: "admin", PasswordHash: "hash", IsSuperuser: true, IsActive: true})

	info, err := f.engine.Create(ctx, admin)
	require.NoError(t, err)

	// Diverge from the snapshot.
	require.NoError(t, f.db.Exec("DELETE FROM client_packages").Error)
	require.NoError(t, f.db.Model(&models.Client{}).Where("id = ?", client.ID).Update("first_name", "Changed").Error)
	testutil.MustCreate(t, f.db, &models.Client{FirstName: "New", LastName: "Client", IsActive: true})
	writeFile(t, filepath.Join(f.media, "clients", "1", "photo.webp"), "overwritten")
	writeFile(t, filepath.Join(f.media, "stray.txt"), "stray")

	report, err := f.engine.Restore(ctx, admin, filepath.Join(f.dir, info.Name), RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tables["clients"])
	assert.Equal(t, 1, report.Tables["client_packages"])
	assert.Equal(t, 1, report.Tables["package_services"])
	assert.Equal(t, 1, report.MediaFiles)
	assert.Equal(t, 1, report.StaticFiles)

	var clients []models.Client
	require.NoError(t, f.db.Order("id").Find(&clients).Error)
	require.Len(t, clients, 1)
	assert.Equal(t, "John", clients[0].FirstName)

	var cp models.ClientPackage
	require.NoError(t, f.db.First(&cp).Error)
	assert.Equal(t, 2, cp.SessionsCompleted)

	var user models.User
	require.NoError(t, f.db.First(&user).Error)
	assert.Equal(t, "hash", user.PasswordHash)

	var linked int64
	require.NoError(t, f.db.Table("package_services").Count(&linked).Error)
	assert.EqualValues(t, 1, linked)

	photo, err := os.ReadFile(filepath.Join(f.media, "clients", "1", "photo.webp"))
	require.NoError(t, err)
	assert.Equal(t, "webp-bytes", string(photo))
	assert.NoFileExists(t, filepath.Join(f.media, "stray.txt"))

	// Only the live directories remain; staging and kept copies are gone.
	assert.Equal(t, []string{"backups", "media", "static"}, dirNames(t, f.root))
}

func TestRestoreKeepsBackupsInsideMediaRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.Client(t, f.db)

	f.dir = filepath.Join(f.media, "backups")
	f.engine.opts.Dir = f.dir

	info, err := f.engine.Create(ctx, admin)
	require.NoError(t, err)
	older := filepath.Join(f.dir, "clinic_backup_2023-12-31_09-00-00.zip")
	writeFile(t, older, "older archive")

	writeFile(t, filepath.Join(f.media, "stray.txt"), "stray")

	_, err = f.engine.Restore(ctx, admin, filepath.Join(f.dir, info.Name), RestoreOptions{})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(f.media, "stray.txt"))
	assert.FileExists(t, filepath.Join(f.media, "clients", "1", "photo.webp"))
	assert.FileExists(t, older)

	list, err := f.engine.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.ElementsMatch(t, []string{info.Name, filepath.Base(older)}, []string{list[0].Name, list[1].Name})

	assert.Equal(t, []string{"media", "static"}, dirNames(t, f.root))
}

func TestNestedDir(t *testing.T) {
	root := t.TempDir()

	rel, err := nestedDir(filepath.Join(root, "media"), filepath.Join(root, "media", "private", "backups"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("private", "backups"), rel)

	rel, err = nestedDir(filepath.Join(root, "media"), filepath.Join(root, "backups"))
	require.NoError(t, err)
	assert.Empty(t, rel)

	rel, err = nestedDir(filepath.Join(root, "media"), filepath.Join(root, "media-backups"))
	require.NoError(t, err)
	assert.Empty(t, rel)

	_, err = nestedDir(filepath.Join(root, "media"), filepath.Join(root, "media"))
	assert.Error(t, err)
}

func TestRestoreSkipOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.Client(t, f.db)

	info, err := f.engine.Create(ctx, admin)
	require.NoError(t, err)

	testutil.MustCreate(t, f.db, &models.Client{FirstName: "Kept", LastName: "Row", IsActive: true})
	writeFile(t, filepath.Join(f.media, "clients", "1", "photo.webp"), "current")

	_, err = f.engine.Restore(ctx, admin, filepath.Join(f.dir, info.Name), RestoreOptions{SkipData: true, SkipMedia: true})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&models.Client{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	photo, err := os.ReadFile(filepath.Join(f.media, "clients", "1", "photo.webp"))
	require.NoError(t, err)
	assert.Equal(t, "current", string(photo))
}

func TestRestoreRejectsCorruptManifest(t *testing.T) {
	f := newFixture(t)
	testutil.Client(t, f.db)

	archive := filepath.Join(f.root, "corrupt.zip")
	writeZip(t, archive, map[string]string{
		ManifestEntry:             "{not json",
		DataEntry:                 `{"tables":{}}`,
		"media/clients/1/new.txt": "x",
	})

	_, err := f.engine.Restore(context.Background(), admin, archive, RestoreOptions{})
	assert.ErrorIs(t, err, ErrManifest)

	var count int64
	require.NoError(t, f.db.Model(&models.Client{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.NoFileExists(t, filepath.Join(f.media, "clients", "1", "new.txt"))
	assert.FileExists(t, filepath.Join(f.media, "clients", "1", "photo.webp"))

	wrongProduct := filepath.Join(f.root, "other.zip")
	writeZip(t, wrongProduct, map[string]string{
		ManifestEntry: `{"format_version":1,"product":"something-else"}`,
		DataEntry:     `{"tables":{}}`,
	})
	_, err = f.engine.Restore(context.Background(), admin, wrongProduct, RestoreOptions{})
	assert.ErrorIs(t, err, ErrManifest)
}

func TestRestoreRejectsZipSlip(t *testing.T) {
	f := newFixture(t)

	archive := filepath.Join(f.root, "slip.zip")
	writeZip(t, archive, map[string]string{
		ManifestEntry:             `{"format_version":1,"product":"clinic-pos"}`,
		DataEntry:                 `{"tables":{}}`,
		"media/../../escaped.txt": "owned",
	})

	_, err := f.engine.Restore(context.Background(), admin, archive, RestoreOptions{})
	assert.ErrorIs(t, err, ErrUnsafeEntry)
	assert.NoFileExists(t, filepath.Join(filepath.Dir(f.root), "escaped.txt"))
	assert.NoFileExists(t, filepath.Join(f.root, "escaped.txt"))
}

func TestRestoreDatabaseFailureRollsBackDirectories(t *testing.T) {
	f := newFixture(t)
	testutil.Client(t, f.db)

	// Two clients sharing a primary key fail the insert.
	archive := filepath.Join(f.root, "dup.zip")
	writeZip(t, archive, map[string]string{
		ManifestEntry: `{"format_version":1,"product":"clinic-pos"}`,
		DataEntry: `{"tables":{"clients":[
			{"id":7,"first_name":"A","last_name":"B","is_active":true},
			{"id":7,"first_name":"C","last_name":"D","is_active":true}
		]}}`,
		"media/clients/7/photo.webp": "restored",
	})

	_, err := f.engine.Restore(context.Background(), admin, archive, RestoreOptions{})
	require.Error(t, err)

	var clients []models.Client
	require.NoError(t, f.db.Find(&clients).Error)
	require.Len(t, clients, 1)
	assert.Equal(t, "John", clients[0].FirstName)

	assert.FileExists(t, filepath.Join(f.media, "clients", "1", "photo.webp"))
	assert.NoDirExists(t, filepath.Join(f.media, "clients", "7"))
	assert.Equal(t, []string{"dup.zip", "media", "static"}, dirNames(t, f.root))
}
