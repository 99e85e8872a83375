package backup

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrInvalidName = errors.New("backup: invalid name")
	ErrNotFound    = errors.New("backup: not found")
	ErrExists      = errors.New("backup: archive already exists")
	ErrManifest    = errors.New("backup: invalid manifest")
	ErrUnsafeEntry = errors.New("backup: unsafe archive entry")
)

const timestampLayout = "2006-01-02_15-04-05"

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+\.zip$`)

// ValidName reports whether name is acceptable as a backup file name. It
// never contains a path separator.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// FileName builds "<prefix>_backup_YYYY-MM-DD_HH-MM-SS.zip".
func FileName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_backup_%s.zip", prefix, t.Format(timestampLayout))
}

func listPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) +
		`_backup_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.zip$`)
}
