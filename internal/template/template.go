// Package template renders embedded-expression configuration templates
// against a binding.
//
// The Renderer itself is dialect-agnostic: it delegates to an Evaluator,
// which only needs to bind the context variables, evaluate the source, and
// report a line number plus message on failure. Two evaluators are provided:
// the expression dialect (`<% ... %>`) job bundles use, and a Go
// text/template dialect with the sprig function set.
package template

import (
	"errors"
	"fmt"

	"github.com/cameronsjo/stevedore/internal/binding"
)

// ErrNoBinding indicates render was called without a bound configuration
// context. The message doubles as the installer's user-visible reason.
var ErrNoBinding = errors.New("unable to bind configuration, no binding provided")

// RenderError is a rendering failure tied to a position in the source.
type RenderError struct {
	// Line is the 1-based line in the source template where the failing
	// expression starts.
	Line int

	// Message is the underlying expression error text.
	Message string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("line %d, error: %s", e.Line, e.Message)
}

// Evaluator executes one template dialect against a binding.
// Implementations return *RenderError for failures inside the source.
type Evaluator interface {
	Evaluate(src string, b *binding.Binding) (string, error)
}

// Renderer renders template sources through a pluggable Evaluator.
type Renderer struct {
	eval Evaluator
}

// NewRenderer creates a renderer backed by the given evaluator.
func NewRenderer(eval Evaluator) *Renderer {
	return &Renderer{eval: eval}
}

// Render evaluates src against the binding. A nil binding fails with
// ErrNoBinding before the source is touched.
func (r *Renderer) Render(src string, b *binding.Binding) (string, error) {
	if b == nil {
		return "", ErrNoBinding
	}
	return r.eval.Evaluate(src, b)
}
