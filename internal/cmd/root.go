// Package cmd provides the CLI commands for stevedore.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/stevedore/internal/config"
	"github.com/cameronsjo/stevedore/internal/ui"
)

const version = "0.1.0"

var configPath string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stevedore",
	Short: "Node-resident job application agent",
	Long: `stevedore - load the cargo, wire the jobs

A node-resident configuration agent core: fetches packaged job template
bundles, renders their configuration against node properties, links them
into the active job set, and generates monit supervision config.

APPLY
  apply <spec.yml>      Install and configure one job from an apply spec
    --no-configure      Install only, skip supervision config

DEBUGGING
  render <template>     Render a single template against a properties file
    --properties <file> Property tree to bind
    --dialect <name>    expr (default) or gotemplate

DIAGNOSTICS
  doctor                Pre-flight checks - binaries and directory layout

MAINTENANCE
  update                Self-update from GitHub releases`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings loads agent settings from --config, falling back to defaults.
func loadSettings() *config.Settings {
	if configPath == "" {
		return config.Default()
	}

	settings, err := config.Load(configPath)
	if err != nil {
		ui.Fatal("load settings: %v", err)
	}
	return settings
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to agent settings file")
	rootCmd.SetVersionTemplate("stevedore version {{.Version}}\n")
}
