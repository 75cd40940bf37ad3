package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	defaultBaseDir   = ".studio"
	storeDirName     = "store"
	sqliteFilename   = "studio.db"
	exportDirName    = "exports"
	manifestFilename = "project.json"
)

// Builder constructs data paths rooted at Base (default ".studio").
type Builder struct {
	Base string
}

func New(base string) *Builder {
	if base == "" {
		base = defaultBaseDir
	}
	return &Builder{Base: base}
}

// StoreDir is the root of the file-backed project store.
func (b *Builder) StoreDir() string {
	return filepath.Join(b.Base, storeDirName)
}

func (b *Builder) SQLitePath() string {
	return filepath.Join(b.Base, sqliteFilename)
}

// ExportDir returns the export directory for a project: Base/exports/<projectID>
func (b *Builder) ExportDir(projectID string) string {
	return filepath.Join(b.Base, exportDirName, projectID)
}

func (b *Builder) ExportManifest(projectID string) string {
	return filepath.Join(b.ExportDir(projectID), manifestFilename)
}

// AssetFile names the exported file for the index-th asset of a project.
func (b *Builder) AssetFile(projectID string, index int, assetType, ext string) string {
	return filepath.Join(b.ExportDir(projectID), fmt.Sprintf("%03d-%s%s", index+1, assetType, ext))
}

// EnsureExportDir creates the project export directory if it does not exist.
func (b *Builder) EnsureExportDir(projectID string) error {
	return os.MkdirAll(b.ExportDir(projectID), 0o755)
}

// CheckOverwrite enforces overwrite behavior. If any path exists and overwrite is false, returns error.
func CheckOverwrite(paths []string, overwrite bool) error {
	if overwrite {
		return nil
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return fmt.Errorf("refusing to overwrite existing file: %s (use --overwrite)", p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking file: %s: %w", p, err)
		}
	}
	return nil
}
