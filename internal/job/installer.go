package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cameronsjo/stevedore/internal/binding"
	"github.com/cameronsjo/stevedore/internal/blobstore"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/cameronsjo/stevedore/internal/hook"
	"github.com/cameronsjo/stevedore/internal/manifest"
	"github.com/cameronsjo/stevedore/internal/template"
)

// ManifestFilename is the manifest file expected at the install tree root.
const ManifestFilename = "job.MF"

// InstallationError is any failure during the install phase, carrying the
// job's qualified identity.
type InstallationError struct {
	Job string
	Err error
}

func (e *InstallationError) Error() string {
	return fmt.Sprintf("Failed to install job '%s': %v", e.Job, e.Err)
}

func (e *InstallationError) Unwrap() error {
	return e.Err
}

// Installer applies a job spec to the node: bundle unpack, manifest
// validation, template rendering and placement, hook invocation, and
// link maintenance.
type Installer struct {
	settings *config.Settings
	store    blobstore.ContentStore
	renderer *template.Renderer
	hooks    hook.Runner
}

// NewInstaller creates an installer. Every path it writes derives from the
// given settings.
func NewInstaller(settings *config.Settings, store blobstore.ContentStore, renderer *template.Renderer, hooks hook.Runner) *Installer {
	return &Installer{
		settings: settings,
		store:    store,
		renderer: renderer,
		hooks:    hooks,
	}
}

// Install applies the spec. It is idempotent for an already-installed
// (template, version): every write lands on the same versioned path and the
// link update replaces atomically. The binding may be nil only when the
// manifest declares no templates.
//
// Every failure aborts the remaining steps. Partial template output from a
// failed attempt is not rolled back; a re-run overwrites it.
func (i *Installer) Install(s Spec, b *binding.Binding) error {
	installPath := InstallPath(i.settings, s)

	if err := i.store.Unpack(s.BlobstoreID, s.Sha1, installPath); err != nil {
		return i.fail(s, fmt.Errorf("unable to fetch job bundle: %w", err))
	}

	manifestPath := filepath.Join(installPath, ManifestFilename)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return i.fail(s, fmt.Errorf("cannot find job manifest %s", manifestPath))
		}
		return i.fail(s, fmt.Errorf("read job manifest %s: %w", manifestPath, err))
	}

	m, err := manifest.Parse(data)
	if err != nil {
		if errors.Is(err, manifest.ErrMalformed) {
			return i.fail(s, fmt.Errorf("malformed job manifest %s", manifestPath))
		}
		return i.fail(s, err)
	}

	if m.HasTemplates() && b == nil {
		return i.fail(s, template.ErrNoBinding)
	}

	for _, src := range m.SortedSources() {
		if err := i.applyTemplate(installPath, src, m.Templates[src], b); err != nil {
			return i.fail(s, err)
		}
	}

	if err := fileutil.Symlink(installPath, LinkPath(i.settings, s)); err != nil {
		return i.fail(s, fmt.Errorf("link job: %w", err))
	}

	// The hook resolves through the active link, so the link must be in
	// place before it runs.
	if err := i.hooks.Run(hook.PostInstall, s.Template); err != nil {
		return i.fail(s, err)
	}

	return nil
}

// applyTemplate renders one declared template source and writes it to its
// destination inside the install tree.
func (i *Installer) applyTemplate(installPath, src, dst string, b *binding.Binding) error {
	srcPath := filepath.Join(installPath, "templates", src)
	content, err := os.ReadFile(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("template '%s' doesn't exist", src)
		}
		return fmt.Errorf("read template '%s': %w", src, err)
	}

	rendered, err := i.renderer.Render(string(content), b)
	if err != nil {
		return fmt.Errorf("failed to process configuration template '%s': %w", src, err)
	}

	dstPath := filepath.Join(installPath, dst)
	if err := fileutil.WriteFile(dstPath, []byte(rendered), 0644); err != nil {
		return fmt.Errorf("write template '%s': %w", src, err)
	}

	return nil
}

func (i *Installer) fail(s Spec, err error) error {
	return &InstallationError{Job: s.Qualified(), Err: err}
}
