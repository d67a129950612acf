package job

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/stevedore/internal/binding"
)

// ApplySpec is the deployment-supplied description of one job application:
// the job spec plus the node-specific context it renders against.
type ApplySpec struct {
	// Job identifies the bundle to install.
	Job Spec `yaml:"job"`

	// Index is the numeric instance index.
	Index int `yaml:"index"`

	// Properties is the nested property tree.
	Properties map[string]any `yaml:"properties"`

	// Vars holds per-template scalar variables.
	Vars map[string]any `yaml:"vars"`
}

// LoadApplySpec reads an apply spec from a YAML file.
func LoadApplySpec(path string) (*ApplySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read apply spec: %w", err)
	}

	var spec ApplySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse apply spec: %w", err)
	}

	return &spec, nil
}

// Binding builds the render context for this application.
func (a *ApplySpec) Binding() *binding.Binding {
	return binding.New(a.Job.Name, a.Index, a.Job.SpecFields(), a.Vars, a.Properties)
}
