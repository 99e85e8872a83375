package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	FormatVersion = 1
	Product       = "clinic-pos"

	ManifestEntry     = "manifest.json"
	DataEntry         = "data_export.json"
	RequirementsEntry = "requirements.txt"
	InfoEntry         = "BACKUP_INFO.txt"
	databaseDir       = "database/"
	mediaDir          = "media/"
	staticDir         = "static/"
)

type Dependency struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Manifest describes an archive. It is written last and read first.
type Manifest struct {
	FormatVersion int            `json:"format_version"`
	Product       string         `json:"product"`
	CreatedAt     time.Time      `json:"created_at"`
	CreatedBy     string         `json:"created_by"`
	Dialect       string         `json:"dialect"`
	Database      string         `json:"database,omitempty"`
	GoVersion     string         `json:"go_version"`
	Dependencies  []Dependency   `json:"dependencies"`
	Tables        map[string]int `json:"tables"`
	Files         map[string]int `json:"files"`
}

func newManifest(createdBy, dialect string, now time.Time) *Manifest {
	return &Manifest{
		FormatVersion: FormatVersion,
		Product:       Product,
		CreatedAt:     now.UTC(),
		CreatedBy:     createdBy,
		Dialect:       dialect,
		GoVersion:     runtime.Version(),
		Dependencies:  buildDependencies(),
		Tables:        map[string]int{},
		Files:         map[string]int{},
	}
}

func (m *Manifest) validate(entries map[string]*zip.File) error {
	if m.Product != Product {
		return fmt.Errorf("%w: unexpected product %q", ErrManifest, m.Product)
	}
	if m.FormatVersion < 1 || m.FormatVersion > FormatVersion {
		return fmt.Errorf("%w: unsupported format version %d", ErrManifest, m.FormatVersion)
	}
	if _, ok := entries[DataEntry]; !ok {
		return fmt.Errorf("%w: missing %s", ErrManifest, DataEntry)
	}
	if m.Database != "" {
		if _, ok := entries[m.Database]; !ok {
			return fmt.Errorf("%w: missing %s", ErrManifest, m.Database)
		}
	}
	return nil
}

func readManifest(entries map[string]*zip.File) (*Manifest, error) {
	f, ok := entries[ManifestEntry]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrManifest, ManifestEntry)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	defer rc.Close()

	var m Manifest
	if err := json.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	if err := m.validate(entries); err != nil {
		return nil, err
	}
	return &m, nil
}

func buildDependencies() []Dependency {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	deps := make([]Dependency, 0, len(info.Deps))
	for _, d := range info.Deps {
		mod := d
		if d.Replace != nil {
			mod = d.Replace
		}
		deps = append(deps, Dependency{Path: mod.Path, Version: mod.Version})
	}
	return deps
}

func requirements(m *Manifest) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n", m.Product, m.GoVersion)
	for _, d := range m.Dependencies {
		fmt.Fprintf(&b, "%s %s\n", d.Path, d.Version)
	}
	return []byte(b.String())
}

func backupInfo(m *Manifest, name string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Backup: %s\n", name)
	fmt.Fprintf(&b, "Created: %s\n", m.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Created by: %s\n", m.CreatedBy)
	fmt.Fprintf(&b, "Database: %s\n", m.Dialect)
	b.WriteString("\nContents:\n")
	fmt.Fprintf(&b, "- %s: all tables as JSON\n", DataEntry)
	if m.Database != "" {
		fmt.Fprintf(&b, "- %s: database snapshot\n", m.Database)
	}
	fmt.Fprintf(&b, "- media/: %d files\n", m.Files["media"])
	fmt.Fprintf(&b, "- static/: %d files\n", m.Files["static"])
	fmt.Fprintf(&b, "- %s: module versions\n", RequirementsEntry)
	b.WriteString("\nRestore with: clinicctl restore <archive>\n")
	return []byte(b.String())
}
