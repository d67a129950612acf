// Package binding provides the per-render configuration context for job
// templates.
//
// A Binding is built once per apply cycle and is immutable for the duration
// of a render. It exposes the job's identity, the node property tree with
// dotted-path resolution, and the per-template scalar variables supplied by
// the apply spec.
package binding

import (
	"fmt"
	"strings"
)

// NotFoundError reports a property lookup that found nothing and had no
// default to fall back on. Path is the canonical dotted path that failed.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("can't find property '%s'", e.Path)
}

// Binding is the property-lookup context bound to one job application.
type Binding struct {
	// Name is the job name, exposed to templates as `name`.
	Name string

	// Index is the numeric instance index, exposed as `index`.
	Index int

	// Spec holds job-spec scalar fields (version, template, ...) exposed
	// via dotted access as `spec.<field>`.
	Spec map[string]any

	// Vars holds per-template scalar variables, exposed by bare name.
	Vars map[string]any

	// Properties is the nested property tree, exposed as `properties.<path>`
	// and through the explicit lookup function.
	Properties map[string]any
}

// New creates a binding for one job application.
func New(name string, index int, spec, vars, properties map[string]any) *Binding {
	return &Binding{
		Name:       name,
		Index:      index,
		Spec:       spec,
		Vars:       vars,
		Properties: properties,
	}
}

// Lookup resolves a dotted path against the property tree.
// It fails with *NotFoundError when any segment is absent or a non-mapping
// value is dereferenced further.
func (b *Binding) Lookup(path string) (any, error) {
	return resolve(b.Properties, path)
}

// LookupDefault resolves a dotted path, returning def when the path is
// absent. This is the only way a missing property is silently defaulted.
func (b *Binding) LookupDefault(path string, def any) any {
	v, err := b.Lookup(path)
	if err != nil {
		return def
	}
	return v
}

// SpecField returns a job-spec scalar field by name.
func (b *Binding) SpecField(name string) (any, error) {
	v, ok := b.Spec[name]
	if !ok {
		return nil, fmt.Errorf("can't find spec field '%s'", name)
	}
	return v, nil
}

// Var returns a per-template scalar variable by name.
func (b *Binding) Var(name string) (any, error) {
	v, ok := b.Vars[name]
	if !ok {
		return nil, fmt.Errorf("undefined variable '%s'", name)
	}
	return v, nil
}

// resolve walks a nested string-keyed tree along a dotted path.
func resolve(tree map[string]any, path string) (any, error) {
	segments := strings.Split(path, ".")

	var current any = tree
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, &NotFoundError{Path: path}
		}
		current, ok = node[seg]
		if !ok {
			return nil, &NotFoundError{Path: path}
		}
	}

	return current, nil
}
