package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/preflight"
	"github.com/cameronsjo/stevedore/internal/ui"
)

// doctorCmd represents the doctor command.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Pre-flight checks - binaries and directory layout",
	Long: `Check that this node can apply jobs.

Verifies the monit supervisor is installed and that the base directory
layout (install tree, active-job links, shared monit dir, blobstore) exists
and is writable.`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	settings := loadSettings()

	ui.Header("=== Stevedore Pre-Flight ===")
	fmt.Println()

	warnings, errors := preflight.CheckAll(settings)

	for _, w := range warnings {
		ui.Warning("%s", w)
	}
	for _, e := range errors {
		ui.Error("%s", e)
	}

	if len(errors) > 0 {
		fmt.Println()
		ui.Error("%d problem(s) found", len(errors))
		os.Exit(1)
	}

	fmt.Println()
	ui.Success("Node is ready to take cargo")
}
