// Package config handles agent settings and the node directory layout.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseDir is the base directory used when no settings file overrides it.
const DefaultBaseDir = "/var/stevedore"

// Settings holds the stevedore agent configuration.
// The base directory is threaded explicitly into every component that
// touches the filesystem; nothing reads it from process-wide state.
type Settings struct {
	// BaseDir is the root of the node layout (data/jobs, jobs, monit).
	BaseDir string `yaml:"base_dir"`

	// BlobstoreDir is where the local content store keeps its blobs.
	BlobstoreDir string `yaml:"blobstore_dir"`
}

// Default returns settings with the standard node layout.
func Default() *Settings {
	return &Settings{
		BaseDir:      DefaultBaseDir,
		BlobstoreDir: filepath.Join(DefaultBaseDir, "data", "blobs"),
	}
}

// Load reads settings from a YAML file, filling unset fields with defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	s := &Settings{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	if s.BaseDir == "" {
		s.BaseDir = DefaultBaseDir
	}
	if s.BlobstoreDir == "" {
		s.BlobstoreDir = filepath.Join(s.BaseDir, "data", "blobs")
	}

	return s, nil
}

// DataJobsDir returns the directory holding versioned job install trees.
func (s *Settings) DataJobsDir() string {
	return filepath.Join(s.BaseDir, "data", "jobs")
}

// JobsDir returns the directory of active-job symlinks.
func (s *Settings) JobsDir() string {
	return filepath.Join(s.BaseDir, "jobs")
}

// MonitJobsDir returns the shared supervisor directory that collects every
// job's stanza files.
func (s *Settings) MonitJobsDir() string {
	return filepath.Join(s.BaseDir, "monit", "job")
}
