// Package archive extracts the zip archive bundled inside the corpus
// repository.
//
// Extraction happens in place: entries land relative to the directory
// given by the caller, normally the directory that holds the archive.
// Entries whose names would resolve outside that directory are rejected.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrArchiveMissing is returned when the archive file does not exist.
var ErrArchiveMissing = errors.New("archive not found")

// Extract unpacks every entry of the zip archive at zipPath into destDir,
// overwriting existing files with the same names. It returns the number of
// regular files written.
//
// Extraction fails if the archive is missing or unreadable, or if an entry
// would escape destDir. Extracted content is not checked for integrity
// beyond what archive/zip verifies (CRC-32 on read).
func Extract(zipPath, destDir string) (files int, err error) {
	if _, statErr := os.Stat(zipPath); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrArchiveMissing, zipPath)
		}
		return 0, fmt.Errorf("failed to stat archive: %w", statErr)
	}

	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve destination path: %w", err)
	}

	zipReader, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open ZIP file %s: %w", zipPath, err)
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range zipReader.File {
		destPath, pathErr := entryPath(absDestDir, file.Name)
		if pathErr != nil {
			return files, pathErr
		}

		if file.FileInfo().IsDir() {
			if mkdirErr := os.MkdirAll(destPath, 0o755); mkdirErr != nil {
				return files, fmt.Errorf("failed to create directory: %w", mkdirErr)
			}
			continue
		}

		// Symlinks and other special entries are not expected in a data
		// archive; skip them rather than materializing links.
		if !file.Mode().IsRegular() {
			continue
		}

		if mkdirErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkdirErr != nil {
			return files, fmt.Errorf("failed to create directory: %w", mkdirErr)
		}
		if extractErr := extractFile(file, destPath); extractErr != nil {
			return files, fmt.Errorf("failed to extract %s: %w", file.Name, extractErr)
		}
		files++
	}

	return files, nil
}

// entryPath joins an archive entry name onto destDir and validates that the
// result stays inside destDir.
func entryPath(destDir, name string) (string, error) {
	destPath := filepath.Join(destDir, filepath.FromSlash(name))

	relPath, err := filepath.Rel(destDir, destPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path in ZIP: %s", name)
	}
	return destPath, nil
}

// extractFile extracts a single file from the ZIP archive.
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Archives built on some platforms carry no permission bits at all.
	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: the archive comes from the cloned corpus repository
	_, err = io.Copy(destFile, rc)
	return err
}
