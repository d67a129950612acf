package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/blobstore"
	"github.com/cameronsjo/stevedore/internal/hook"
	"github.com/cameronsjo/stevedore/internal/job"
	"github.com/cameronsjo/stevedore/internal/lock"
	"github.com/cameronsjo/stevedore/internal/monit"
	"github.com/cameronsjo/stevedore/internal/template"
	"github.com/cameronsjo/stevedore/internal/ui"
)

var applyNoConfigure bool

// applyCmd represents the apply command.
var applyCmd = &cobra.Command{
	Use:   "apply <spec.yml>",
	Short: "Install and configure one job from an apply spec",
	Long: `Apply one job to this node.

Reads a deployment-supplied apply spec (job identity, instance index,
property tree, template vars), installs the job's template bundle, renders
its configuration templates, links it into the active job set, and writes
normalized monit supervision config.

The apply cycle takes an exclusive lock: concurrent applies on one node are
serialized, never interleaved.

Examples:
  stevedore apply ccdb.yml
  stevedore apply ccdb.yml --no-configure`,
	Args: cobra.ExactArgs(1),
	Run:  runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyNoConfigure, "no-configure", false, "Install only, skip supervision config")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	settings := loadSettings()

	spec, err := job.LoadApplySpec(args[0])
	if err != nil {
		ui.Fatal("%v", err)
	}

	renderer := template.NewRenderer(template.NewExpressionEvaluator())
	store := blobstore.NewLocalStore(settings.BlobstoreDir)
	hooks := hook.NewExecRunner(settings.JobsDir())

	installer := job.NewInstaller(settings, store, renderer, hooks)
	generator := monit.NewGenerator(settings, renderer, hooks)

	err = lock.WithLock(settings.BaseDir, "apply", func() error {
		b := spec.Binding()

		ui.Step(1, "Installing %s/%s", spec.Job.Template, spec.Job.Version)
		if err := installer.Install(spec.Job, b); err != nil {
			return err
		}
		ui.Cargo("Installed %s", spec.Job.Qualified())

		if applyNoConfigure {
			return nil
		}

		ui.Step(2, "Writing supervision config")
		if err := generator.Configure(spec.Job, spec.Index, b); err != nil {
			return err
		}
		ui.Success("Configured %s", spec.Job.Qualified())

		return nil
	})
	if err != nil {
		ui.Fatal("%v", err)
	}
}
