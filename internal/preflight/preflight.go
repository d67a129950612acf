// Package preflight provides pre-flight validation for required binaries and
// the node directory layout.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cameronsjo/stevedore/internal/config"
)

// BinaryCheck represents a required binary and its purpose.
type BinaryCheck struct {
	Name        string
	Required    bool   // false = warning only
	InstallHint string
}

// requiredBinaries defines binaries that must be present for stevedore to
// function.
var requiredBinaries = []BinaryCheck{
	{
		Name:        "monit",
		Required:    true,
		InstallHint: "Install monit: https://mmonit.com/monit/",
	},
}

// optionalBinaries defines binaries that enhance stevedore functionality but
// are not strictly required. Hook scripts commonly use a shell.
var optionalBinaries = []BinaryCheck{
	{
		Name:        "bash",
		Required:    false,
		InstallHint: "Install bash for job hook scripts",
	},
}

// CheckRequiredBinaries validates only required binaries are available.
// Returns list of missing required binaries.
func CheckRequiredBinaries() []BinaryCheck {
	var missing []BinaryCheck

	for _, bin := range requiredBinaries {
		if _, err := exec.LookPath(bin.Name); err != nil {
			missing = append(missing, bin)
		}
	}

	return missing
}

// CheckOptionalBinaries validates optional binaries and returns missing ones.
func CheckOptionalBinaries() []BinaryCheck {
	var missing []BinaryCheck

	for _, bin := range optionalBinaries {
		if _, err := exec.LookPath(bin.Name); err != nil {
			missing = append(missing, bin)
		}
	}

	return missing
}

// CheckLayout verifies the node directory layout is usable: the base
// directory exists (or can be created) and is writable.
func CheckLayout(settings *config.Settings) []string {
	var problems []string

	dirs := []string{
		settings.DataJobsDir(),
		settings.JobsDir(),
		settings.MonitJobsDir(),
		settings.BlobstoreDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", dir, err))
			continue
		}

		probe := filepath.Join(dir, ".preflight")
		if err := os.WriteFile(probe, nil, 0644); err != nil {
			problems = append(problems, fmt.Sprintf("%s: not writable: %v", dir, err))
			continue
		}
		os.Remove(probe)
	}

	return problems
}

// CheckAll performs all pre-flight checks and returns warnings and errors.
// Errors are for missing required binaries and unusable directories,
// warnings are for missing optional binaries.
func CheckAll(settings *config.Settings) (warnings []string, errors []string) {
	for _, bin := range CheckRequiredBinaries() {
		errors = append(errors, bin.Name+": "+bin.InstallHint)
	}

	for _, bin := range CheckOptionalBinaries() {
		warnings = append(warnings, bin.Name+": "+bin.InstallHint)
	}

	errors = append(errors, CheckLayout(settings)...)

	return warnings, errors
}

// IsBinaryAvailable checks if a specific binary is available in PATH.
func IsBinaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
