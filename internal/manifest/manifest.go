// Package manifest parses and validates the job manifest (job.MF).
//
// A manifest is a YAML mapping with one optional key this core cares about:
//
//	templates:
//	  foo.erb: bin/foo
//	  bar.erb: config/bar.conf
//
// mapping relative template sources to relative destination paths inside the
// job's install tree. Every other top-level key is ignored. Each way a
// manifest can be invalid is a distinct, named condition so the installer can
// surface the exact message the orchestrator expects.
package manifest

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrMalformed indicates the manifest is not valid YAML at all.
var ErrMalformed = errors.New("malformed job manifest")

// NotAMappingError indicates the manifest parsed but its top level is not a
// mapping. Actual names the concrete type that was found.
type NotAMappingError struct {
	Actual string
}

func (e *NotAMappingError) Error() string {
	return fmt.Sprintf("invalid job manifest, Hash expected, %s given", e.Actual)
}

// TemplatesNotAMappingError indicates the `templates` value is present but
// is not a mapping.
type TemplatesNotAMappingError struct {
	Actual string
}

func (e *TemplatesNotAMappingError) Error() string {
	return fmt.Sprintf("invalid value for templates in job manifest, Hash expected, %s given", e.Actual)
}

// Manifest is a fully validated job.MF.
type Manifest struct {
	// Templates maps relative template source paths to relative destination
	// paths within the install tree. Empty when the manifest declares none.
	Templates map[string]string
}

// HasTemplates reports whether the manifest declares any templates.
func (m *Manifest) HasTemplates() bool {
	return len(m.Templates) > 0
}

// SortedSources returns the template source names in lexical order, so
// installs process templates deterministically.
func (m *Manifest) SortedSources() []string {
	sources := make([]string, 0, len(m.Templates))
	for src := range m.Templates {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// Parse parses raw job.MF content. It either returns a fully valid Manifest
// or one of the named failures; there is no partial result.
func Parse(data []byte) (*Manifest, error) {
	var top any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	mapping, ok := top.(map[string]any)
	if !ok {
		return nil, &NotAMappingError{Actual: typeName(top)}
	}

	m := &Manifest{Templates: map[string]string{}}

	raw, ok := mapping["templates"]
	if !ok || raw == nil {
		return m, nil
	}

	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, &TemplatesNotAMappingError{Actual: typeName(raw)}
	}

	for src, dst := range entries {
		m.Templates[src] = fmt.Sprintf("%v", dst)
	}

	return m, nil
}

// typeName renders a parsed YAML value's type the way the orchestrator's
// messages name them.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "Null"
	case map[string]any:
		return "Hash"
	case []any:
		return "Array"
	case string:
		return "String"
	case int, int64:
		return "Integer"
	case float64:
		return "Float"
	case bool:
		return "Boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
