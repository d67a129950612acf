package template

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/cameronsjo/stevedore/internal/binding"
)

// GoTemplateEvaluator evaluates Go text/template sources with the sprig
// function set. The binding is exposed as template data: `.name`, `.index`,
// `.spec`, `.properties`, per-template vars at the top level, and a `p`
// function performing explicit dotted lookup with an optional default.
type GoTemplateEvaluator struct{}

// NewGoTemplateEvaluator returns the Go-template-dialect evaluator.
func NewGoTemplateEvaluator() *GoTemplateEvaluator {
	return &GoTemplateEvaluator{}
}

// templateErrPattern extracts the line and message out of text/template
// errors, which look like "template: <name>:<line>[:<col>]: <message>".
var templateErrPattern = regexp.MustCompile(`template: [^:]*:(\d+)(?::\d+)?: (.*)`)

// Evaluate renders src as a Go template against the binding.
func (GoTemplateEvaluator) Evaluate(src string, b *binding.Binding) (string, error) {
	tmpl := template.New("template").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{
			"p": func(args ...any) (any, error) {
				if len(args) == 0 {
					return nil, errors.New("p expects a property path")
				}
				path, ok := args[0].(string)
				if !ok {
					return nil, errors.New("p expects a property path string")
				}
				if len(args) > 1 {
					return b.LookupDefault(path, args[1]), nil
				}
				return b.Lookup(path)
			},
		}).
		Option("missingkey=error")

	tmpl, err := tmpl.Parse(src)
	if err != nil {
		return "", asRenderError(err)
	}

	data := map[string]any{
		"name":       b.Name,
		"index":      b.Index,
		"spec":       b.Spec,
		"properties": b.Properties,
	}
	for k, v := range b.Vars {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", asRenderError(err)
	}

	return buf.String(), nil
}

// asRenderError converts a text/template error into a *RenderError,
// recovering the source line when the error text carries one.
func asRenderError(err error) error {
	if m := templateErrPattern.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &RenderError{Line: line, Message: m[2]}
	}
	return &RenderError{Line: 0, Message: err.Error()}
}
