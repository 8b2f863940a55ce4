// Package bundle lays generated SQL artifacts out on disk and
// optionally packs them into a single deployment archive.
package bundle

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Artifact is one generated file, with a path relative to the output
// directory (always forward-slashed, the layout is also the archive
// layout).
type Artifact struct {
	Path    string
	Content string
}

// Standard layout directories.
const (
	DDLDir  = "ddl"
	SeedDir = "seed"
	DataDir = "data"
)

// Write puts every artifact under outDir, creating directories as
// needed. Existing files are overwritten; generation is the source of
// truth.
func Write(outDir string, artifacts []Artifact) error {
	for _, a := range artifacts {
		path := filepath.Join(outDir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(a.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.Path, err)
		}
	}
	return nil
}

// Zip writes the artifacts into one archive. Members are stored in
// path order so the same artifact set always produces the same member
// sequence.
func Zip(zipPath string, artifacts []Artifact) error {
	sorted := append([]Artifact(nil), artifacts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	if dir := filepath.Dir(zipPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, a := range sorted {
		member, err := w.Create(a.Path)
		if err != nil {
			w.Close()
			return fmt.Errorf("failed to add %s to archive: %w", a.Path, err)
		}
		if _, err := member.Write([]byte(a.Content)); err != nil {
			w.Close()
			return fmt.Errorf("failed to write %s to archive: %w", a.Path, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// ArchiveName names the deployment archive for a model.
func ArchiveName(modelName, version string) string {
	if version == "" {
		return modelName + ".zip"
	}
	return fmt.Sprintf("%s_%s.zip", modelName, version)
}
