package job_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/stevedore/internal/binding"
	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/job"
	"github.com/cameronsjo/stevedore/internal/template"
)

// fakeStore stands in for the content store: it "unpacks" a fixed set of
// bundle files into the destination.
type fakeStore struct {
	files map[string]string // relative path -> content
	err   error
	calls int
}

func (f *fakeStore) Unpack(blobstoreID, sha1sum, dest string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for rel, content := range f.files {
		path := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

type recordingRunner struct {
	calls [][2]string
	err   error
}

func (r *recordingRunner) Run(hookName, templateName string) error {
	r.calls = append(r.calls, [2]string{hookName, templateName})
	return r.err
}

func testSpec() job.Spec {
	return job.Spec{
		Name:        "ccdb",
		Template:    "ccdb",
		Version:     "0.7.1",
		Sha1:        "deadbeef",
		BlobstoreID: "blob-1",
	}
}

func testBinding() *binding.Binding {
	return binding.New("ccdb", 42, testSpec().SpecFields(),
		map[string]any{"key1": "value1", "key2": "value2"},
		map[string]any{"a": "b"},
	)
}

func newInstaller(t *testing.T, store *fakeStore, hooks *recordingRunner) (*job.Installer, *config.Settings) {
	t.Helper()

	settings := &config.Settings{BaseDir: t.TempDir()}
	renderer := template.NewRenderer(template.NewExpressionEvaluator())
	return job.NewInstaller(settings, store, renderer, hooks), settings
}

func fullBundle() map[string]string {
	return map[string]string{
		"job.MF": "templates:\n" +
			"  foo.erb: bin/foo\n" +
			"  bar.erb: config/test.txt\n" +
			"  test: test\n" +
			"  properties.erb: properties\n",
		"templates/foo.erb":        "<%key1%>",
		"templates/bar.erb":        "<%key2%>",
		"templates/test":           "<%name%>, <%index%>",
		"templates/properties.erb": "<%properties.a%>",
	}
}

func TestInstall(t *testing.T) {
	store := &fakeStore{files: fullBundle()}
	hooks := &recordingRunner{}
	installer, settings := newInstaller(t, store, hooks)

	require.NoError(t, installer.Install(testSpec(), testBinding()))

	installPath := job.InstallPath(settings, testSpec())

	t.Run("rendered templates placed at their destinations", func(t *testing.T) {
		expected := map[string]string{
			"bin/foo":         "value1",
			"config/test.txt": "value2",
			"test":            "ccdb, 42",
			"properties":      "b",
		}
		for rel, want := range expected {
			data, err := os.ReadFile(filepath.Join(installPath, rel))
			require.NoError(t, err)
			assert.Equal(t, want, string(data), rel)
		}
	})

	t.Run("link points at the installed version", func(t *testing.T) {
		target, err := os.Readlink(job.LinkPath(settings, testSpec()))
		require.NoError(t, err)
		assert.Equal(t, installPath, target)
	})

	t.Run("post_install hook invoked", func(t *testing.T) {
		assert.Equal(t, [][2]string{{"post_install", "ccdb"}}, hooks.calls)
	})
}

func TestInstallIsIdempotent(t *testing.T) {
	store := &fakeStore{files: fullBundle()}
	installer, settings := newInstaller(t, store, &recordingRunner{})

	require.NoError(t, installer.Install(testSpec(), testBinding()))

	installPath := job.InstallPath(settings, testSpec())
	first, err := os.ReadFile(filepath.Join(installPath, "bin", "foo"))
	require.NoError(t, err)

	require.NoError(t, installer.Install(testSpec(), testBinding()))
	assert.Equal(t, 2, store.calls)

	second, err := os.ReadFile(filepath.Join(installPath, "bin", "foo"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	target, err := os.Readlink(job.LinkPath(settings, testSpec()))
	require.NoError(t, err)
	assert.Equal(t, installPath, target)
}

func TestInstallWithoutTemplatesNeedsNoBinding(t *testing.T) {
	store := &fakeStore{files: map[string]string{"job.MF": "name: ccdb\n"}}
	installer, _ := newInstaller(t, store, &recordingRunner{})

	assert.NoError(t, installer.Install(testSpec(), nil))
}

func TestInstallFailures(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		binding *binding.Binding
		want    string
	}{
		{
			name:    "templates without binding",
			files:   fullBundle(),
			binding: nil,
			want:    "Failed to install job 'ccdb.ccdb': unable to bind configuration, no binding provided",
		},
		{
			name:    "missing manifest",
			files:   map[string]string{"readme": "no manifest here"},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': cannot find job manifest ",
		},
		{
			name:    "malformed manifest",
			files:   map[string]string{"job.MF": "templates: [\n  unclosed"},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': malformed job manifest ",
		},
		{
			name:    "manifest not a mapping",
			files:   map[string]string{"job.MF": "- a\n- b\n"},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': invalid job manifest, Hash expected, Array given",
		},
		{
			name:    "templates not a mapping",
			files:   map[string]string{"job.MF": "templates: all\n"},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': invalid value for templates in job manifest, Hash expected, String given",
		},
		{
			name: "missing template source",
			files: map[string]string{
				"job.MF": "templates:\n  foo.erb: bin/foo\n",
			},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': template 'foo.erb' doesn't exist",
		},
		{
			name: "render failure carries line and message",
			files: map[string]string{
				"job.MF":            "templates:\n  foo.erb: bin/foo\n",
				"templates/foo.erb": "<%properties.missing%>",
			},
			binding: testBinding(),
			want:    "Failed to install job 'ccdb.ccdb': failed to process configuration template 'foo.erb': line 1, error: can't find property 'missing'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installer, settings := newInstaller(t, &fakeStore{files: tt.files}, &recordingRunner{})

			err := installer.Install(testSpec(), tt.binding)
			require.Error(t, err)

			var ie *job.InstallationError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "ccdb.ccdb", ie.Job)

			if tt.want[len(tt.want)-1] == ' ' {
				// Message ends with a path; check the prefix and the path.
				assert.Contains(t, err.Error(), tt.want)
				assert.Contains(t, err.Error(), filepath.Join(job.InstallPath(settings, testSpec()), "job.MF"))
			} else {
				assert.Equal(t, tt.want, err.Error())
			}

			// Failures leave no active link behind.
			_, linkErr := os.Readlink(job.LinkPath(settings, testSpec()))
			assert.Error(t, linkErr)
		})
	}
}

func TestInstallUnpackFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("blob checksum mismatch")}
	installer, _ := newInstaller(t, store, &recordingRunner{})

	err := installer.Install(testSpec(), testBinding())
	require.Error(t, err)

	var ie *job.InstallationError
	require.ErrorAs(t, err, &ie)
	assert.Contains(t, err.Error(), "Failed to install job 'ccdb.ccdb': unable to fetch job bundle: blob checksum mismatch")
}

func TestInstallHookFailure(t *testing.T) {
	store := &fakeStore{files: map[string]string{"job.MF": "name: ccdb\n"}}
	hooks := &recordingRunner{err: errors.New("hook post_install failed")}
	installer, settings := newInstaller(t, store, hooks)

	err := installer.Install(testSpec(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to install job 'ccdb.ccdb': hook post_install failed")

	// The hook runs through the active link, so the link is already in
	// place when the hook fails.
	target, linkErr := os.Readlink(job.LinkPath(settings, testSpec()))
	require.NoError(t, linkErr)
	assert.Equal(t, job.InstallPath(settings, testSpec()), target)
}
