// Package fileutil provides common file operations.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile writes data to path, creating parent directories as needed.
// Uses atomic write via temp file to prevent partial writes on failure.
func WriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	// Temp file in the same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("write content: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to destination: %w", err)
	}

	success = true
	return nil
}

// Symlink points link at target, replacing any existing link or file.
// The replacement is atomic: the new link is created under a temp name in
// the same directory and renamed over the old one.
func Symlink(target, link string) error {
	dir := filepath.Dir(link)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	tmpLink := filepath.Join(dir, ".link-"+filepath.Base(link))
	if err := os.Remove(tmpLink); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale temp link: %w", err)
	}

	if err := os.Symlink(target, tmpLink); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}

	if err := os.Rename(tmpLink, link); err != nil {
		os.Remove(tmpLink)
		return fmt.Errorf("replace symlink: %w", err)
	}

	return nil
}
