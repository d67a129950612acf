package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/ui"
	"github.com/cameronsjo/stevedore/internal/update"
)

var updateCheckOnly bool

// updateCmd represents the update command.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Self-update from GitHub releases",
	Long: `Update the stevedore binary to the latest release.

Examples:
  stevedore update           # Download and install the latest release
  stevedore update --check   # Only check whether an update exists`,
	Run: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheckOnly, "check", false, "Check for updates without installing")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	if updateCheckOnly {
		release, available, err := update.CheckForUpdate(version)
		if err != nil {
			ui.Fatal("check for update: %v", err)
		}
		if !available {
			ui.Success("stevedore %s is up to date (%s)", version, update.GetPlatformInfo())
			return
		}
		ui.Info("Update available: %s (released %s)", release.Version, release.PublishedAt)
		ui.Info("%s", release.ReleaseURL)
		return
	}

	release, err := update.Update(version)
	if err != nil {
		ui.Fatal("update: %v", err)
	}
	if release == nil {
		ui.Success("stevedore %s is up to date (%s)", version, update.GetPlatformInfo())
		return
	}
	ui.Success("Updated to %s", release.Version)
}
