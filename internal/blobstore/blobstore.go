// Package blobstore provides the content-store contract the installer
// consumes, plus a local checksum-verified implementation.
//
// The installer never interprets a store failure beyond propagating it; the
// store owns its own fetch and timeout semantics.
package blobstore

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cameronsjo/stevedore/internal/fileutil"
)

// ContentStore unpacks a bundle identified by (blobstore id, checksum) into
// a destination directory, replacing whatever is there.
type ContentStore interface {
	Unpack(blobstoreID, sha1sum, dest string) error
}

// LocalStore is a ContentStore over a directory of gzip tarballs, keyed by
// blobstore id (one file per blob, named by its id).
type LocalStore struct {
	dir string
}

// NewLocalStore creates a store over the given blob directory.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Unpack verifies the blob's SHA1 and extracts it into dest. Extraction goes
// through a scratch directory next to dest, so a failed unpack never leaves
// a half-written install tree behind.
func (s *LocalStore) Unpack(blobstoreID, sha1sum, dest string) error {
	blobPath := filepath.Join(s.dir, blobstoreID)

	if err := s.verify(blobPath, sha1sum); err != nil {
		return err
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fmt.Errorf("create destination parent: %w", err)
	}

	scratch := filepath.Join(parent, ".unpack-"+uuid.New().String()[:8])
	defer os.RemoveAll(scratch)

	if err := extract(blobPath, scratch); err != nil {
		return fmt.Errorf("extract blob %s: %w", blobstoreID, err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("clear destination: %w", err)
	}
	if err := os.Rename(scratch, dest); err != nil {
		return fmt.Errorf("move into place: %w", err)
	}

	return nil
}

// verify streams the blob through SHA1 and compares against the expected sum.
func (s *LocalStore) verify(blobPath, sha1sum string) error {
	f, err := os.Open(blobPath)
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("checksum blob: %w", err)
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if actual != sha1sum {
		return fmt.Errorf("blob checksum mismatch: expected %s, got %s", sha1sum, actual)
	}

	return nil
}

// extract unpacks a gzip tarball into dir.
func extract(blobPath, dir string) error {
	f, err := os.Open(blobPath)
	if err != nil {
		return fmt.Errorf("open blob: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		name := filepath.Clean(hdr.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("unsafe tar entry path %q", hdr.Name)
		}
		path := filepath.Join(dir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", name, err)
			}
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("read tar entry %s: %w", name, err)
			}
			if err := fileutil.WriteFile(path, data, fs.FileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
	}
}
