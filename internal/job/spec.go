// Package job installs job template bundles and maintains the node's active
// job set.
//
// A job revision is identified by (name, template, version) plus the
// content-store coordinates of its bundle. The install tree is versioned
// (`data/jobs/<template>/<version>`) so installing the same revision twice
// is idempotent, and activating a version is a single symlink update
// (`jobs/<template>`).
package job

import (
	"path/filepath"

	"github.com/cameronsjo/stevedore/internal/config"
)

// Spec identifies one installable job revision, as supplied by the
// orchestrator per apply cycle.
type Spec struct {
	// Name is the release job name.
	Name string `json:"name" yaml:"name"`

	// Template is the job template name; it names the install and link
	// directories.
	Template string `json:"template" yaml:"template"`

	// Version is the job revision.
	Version string `json:"version" yaml:"version"`

	// Sha1 is the bundle content checksum.
	Sha1 string `json:"sha1" yaml:"sha1"`

	// BlobstoreID is the content-store key of the bundle.
	BlobstoreID string `json:"blobstore_id" yaml:"blobstore_id"`
}

// Qualified returns the job's qualified identity, "<name>.<template>",
// used in every user-visible failure.
func (s Spec) Qualified() string {
	return s.Name + "." + s.Template
}

// SpecFields returns the spec's scalar fields for template access via
// `spec.<field>`.
func (s Spec) SpecFields() map[string]any {
	return map[string]any{
		"name":         s.Name,
		"template":     s.Template,
		"version":      s.Version,
		"sha1":         s.Sha1,
		"blobstore_id": s.BlobstoreID,
	}
}

// InstallPath returns the versioned install directory for the spec.
// Identical (template, version) always yields the identical path.
func InstallPath(settings *config.Settings, s Spec) string {
	return filepath.Join(settings.DataJobsDir(), s.Template, s.Version)
}

// LinkPath returns the active-job symlink for the spec's template. The path
// names the template only, so re-pointing it is the sole mutation needed to
// activate a version.
func LinkPath(settings *config.Settings, s Spec) string {
	return filepath.Join(settings.JobsDir(), s.Template)
}
