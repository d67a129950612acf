package monit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cameronsjo/stevedore/internal/binding"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/fileutil"
	"github.com/cameronsjo/stevedore/internal/hook"
	"github.com/cameronsjo/stevedore/internal/job"
	"github.com/cameronsjo/stevedore/internal/template"
)

// PrimarySource is the monit template at the root of a job install tree.
const PrimarySource = "monit"

// ExtraSourceSuffix marks auxiliary monit sources in the install tree.
const ExtraSourceSuffix = ".monit"

// ConfigurationError is any failure during the supervision-config phase,
// carrying the job's qualified identity.
type ConfigurationError struct {
	Job string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("Failed to configure job '%s': %v", e.Job, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Stanza is one normalized supervision block, tagged with the job identity,
// destination segment, and caller-supplied ordering index that determine
// where it lands in the shared supervisor directory.
type Stanza struct {
	JobName string
	Segment string
	Index   int
	Text    string
}

// Filename returns the ordered stanza filename, zero-padded so a supervisor
// scanning the shared directory discovers stanzas in index order.
func (s Stanza) Filename() string {
	return fmt.Sprintf("%04d_%s.%s.monitrc", s.Index, s.JobName, s.Segment)
}

// Generator renders a job's monit sources, normalizes the stanzas, writes
// per-job files with deterministic ordered names, and links them into the
// shared supervisor directory.
type Generator struct {
	settings *config.Settings
	renderer *template.Renderer
	hooks    hook.Runner
}

// NewGenerator creates a generator. The shared supervisor directory derives
// from the given settings.
func NewGenerator(settings *config.Settings, renderer *template.Renderer, hooks hook.Runner) *Generator {
	return &Generator{
		settings: settings,
		renderer: renderer,
		hooks:    hooks,
	}
}

// Configure processes the job's primary monit template and every auxiliary
// *.monit source. The index orders the job's stanza files within the shared
// supervisor directory; a supervisor scanning that one directory discovers
// every job's stanzas in index order.
func (g *Generator) Configure(s job.Spec, index int, b *binding.Binding) error {
	installPath := job.InstallPath(g.settings, s)

	primary := filepath.Join(installPath, PrimarySource)
	if _, err := os.Stat(primary); err == nil {
		if err := g.generate(s, index, b, primary, PrimarySource, s.Template); err != nil {
			return err
		}
	}

	extras, err := filepath.Glob(filepath.Join(installPath, "*"+ExtraSourceSuffix))
	if err != nil {
		return g.fail(s, fmt.Errorf("scan monit sources: %w", err))
	}
	sort.Strings(extras)

	for _, source := range extras {
		base := strings.TrimSuffix(filepath.Base(source), ExtraSourceSuffix)
		segment := base + "_extra"
		if err := g.generate(s, index, b, source, filepath.Base(source), segment); err != nil {
			return err
		}
	}

	if err := g.hooks.Run(hook.PostInstall, s.Template); err != nil {
		return g.fail(s, err)
	}

	return nil
}

// generate renders one monit source, normalizes it, writes the stanza file
// into the install tree, and links it into the shared supervisor directory
// under the same name.
func (g *Generator) generate(s job.Spec, index int, b *binding.Binding, sourcePath, sourceName, segment string) error {
	content, err := os.ReadFile(sourcePath)
	if err != nil {
		return g.fail(s, fmt.Errorf("read monit template '%s': %w", sourceName, err))
	}

	rendered, err := g.renderer.Render(string(content), b)
	if err != nil {
		return g.fail(s, fmt.Errorf("failed to process monit template '%s': %w", sourceName, err))
	}

	stanza := Stanza{
		JobName: s.Name,
		Segment: segment,
		Index:   index,
		Text:    Normalize(rendered),
	}

	stanzaPath := filepath.Join(job.InstallPath(g.settings, s), stanza.Filename())
	if err := fileutil.WriteFile(stanzaPath, []byte(stanza.Text), 0644); err != nil {
		return g.fail(s, fmt.Errorf("write monit config '%s': %w", stanza.Filename(), err))
	}

	link := filepath.Join(g.settings.MonitJobsDir(), stanza.Filename())
	if err := fileutil.Symlink(stanzaPath, link); err != nil {
		return g.fail(s, fmt.Errorf("link monit config '%s': %w", stanza.Filename(), err))
	}

	return nil
}

func (g *Generator) fail(s job.Spec, err error) error {
	return &ConfigurationError{Job: s.Qualified(), Err: err}
}
