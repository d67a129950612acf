// Package hook runs job lifecycle hooks.
package hook

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// PostInstall is the hook name invoked after install and after configure.
// Hook scripts must therefore be idempotent: the same hook can fire twice
// within one apply cycle.
const PostInstall = "post_install"

// Runner invokes a named hook for a job template.
type Runner interface {
	Run(hookName, templateName string) error
}

// ExecRunner runs hook scripts from the job's active link:
// <jobsDir>/<template>/bin/<hook>. A missing script is a no-op, so jobs
// without hooks cost nothing.
type ExecRunner struct {
	jobsDir string
}

// NewExecRunner creates a runner over the active-jobs directory.
func NewExecRunner(jobsDir string) *ExecRunner {
	return &ExecRunner{jobsDir: jobsDir}
}

// Run executes the hook script if present.
func (r *ExecRunner) Run(hookName, templateName string) error {
	script := filepath.Join(r.jobsDir, templateName, "bin", hookName)

	if _, err := os.Stat(script); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat hook %s: %w", hookName, err)
	}

	cmd := exec.Command(script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("hook %s failed for %s: %w: %s", hookName, templateName, err, stderr.String())
	}

	return nil
}
