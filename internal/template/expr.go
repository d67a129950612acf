package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cameronsjo/stevedore/internal/binding"
)

// ExpressionEvaluator evaluates the `<% expr %>` dialect used by job
// template bundles. Expressions are restricted to the property-lookup
// contract: scalar variables, `name`, `index`, `spec.<field>`,
// `properties.<dotted.path>`, the lookup function `p(path, default?)`, and
// literals. Templates get no system access of any kind.
type ExpressionEvaluator struct{}

// NewExpressionEvaluator returns the expression-dialect evaluator.
func NewExpressionEvaluator() *ExpressionEvaluator {
	return &ExpressionEvaluator{}
}

// Evaluate replaces each `<% expr %>` in src with the expression's value.
// Text outside expressions is copied through untouched.
func (ExpressionEvaluator) Evaluate(src string, b *binding.Binding) (string, error) {
	var out strings.Builder
	line := 1

	for i := 0; i < len(src); {
		if strings.HasPrefix(src[i:], "<%") {
			end := strings.Index(src[i+2:], "%>")
			if end < 0 {
				return "", &RenderError{Line: line, Message: "unterminated expression"}
			}

			exprText := src[i+2 : i+2+end]
			startLine := line
			line += strings.Count(exprText, "\n")

			v, err := evalExpr(strings.TrimSpace(exprText), b)
			if err != nil {
				return "", &RenderError{Line: startLine, Message: err.Error()}
			}
			out.WriteString(formatValue(v))

			i += 2 + end + 2
			continue
		}

		if src[i] == '\n' {
			line++
		}
		out.WriteByte(src[i])
		i++
	}

	return out.String(), nil
}

// formatValue renders an expression result into template output.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokNumber
	tokDot
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

// lexExpr splits one expression into tokens.
func lexExpr(s string) ([]token, error) {
	var toks []token

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '.':
			toks = append(toks, token{kind: tokDot, text: "."})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")"})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ","})
			i++
		case c == '\'' || c == '"':
			quote := c
			j := i + 1
			for j < len(s) && s[j] != quote {
				j++
			}
			if j >= len(s) {
				return nil, errors.New("unterminated string literal")
			}
			toks = append(toks, token{kind: tokString, text: s[i+1 : j]})
			i = j + 1
		case c >= '0' && c <= '9', c == '-':
			j := i + 1
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:j]})
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character '%c'", c)
		}
	}

	return toks, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

type exprParser struct {
	toks []token
	pos  int
}

// evalExpr parses and evaluates a single expression against the binding.
func evalExpr(text string, b *binding.Binding) (any, error) {
	toks, err := lexExpr(text)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, errors.New("empty expression")
	}

	p := &exprParser{toks: toks}
	v, err := p.parse(b)
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected token '%s'", p.toks[p.pos].text)
	}
	return v, nil
}

func (p *exprParser) peekKind(k tokenKind) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].kind == k
}

func (p *exprParser) next() (token, error) {
	if p.pos >= len(p.toks) {
		return token{}, errors.New("unexpected end of expression")
	}
	t := p.toks[p.pos]
	p.pos++
	return t, nil
}

func (p *exprParser) expect(k tokenKind, what string) (token, error) {
	t, err := p.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != k {
		return token{}, fmt.Errorf("expected %s, got '%s'", what, t.text)
	}
	return t, nil
}

func (p *exprParser) parse(b *binding.Binding) (any, error) {
	t, err := p.next()
	if err != nil {
		return nil, err
	}

	switch t.kind {
	case tokString:
		return t.text, nil

	case tokNumber:
		if strings.Contains(t.text, ".") {
			f, err := strconv.ParseFloat(t.text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number '%s'", t.text)
			}
			return f, nil
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s'", t.text)
		}
		return n, nil

	case tokIdent:
		switch t.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "nil":
			return nil, nil
		}

		if t.text == "p" && p.peekKind(tokLParen) {
			return p.parseLookup(b)
		}

		path := []string{t.text}
		for p.peekKind(tokDot) {
			p.pos++
			id, err := p.expect(tokIdent, "identifier")
			if err != nil {
				return nil, err
			}
			path = append(path, id.text)
		}
		return resolvePath(path, b)

	default:
		return nil, fmt.Errorf("unexpected token '%s'", t.text)
	}
}

// parseLookup evaluates p(path) or p(path, default). The parser is
// positioned on the opening paren.
func (p *exprParser) parseLookup(b *binding.Binding) (any, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}

	arg, err := p.parse(b)
	if err != nil {
		return nil, err
	}
	path, ok := arg.(string)
	if !ok {
		return nil, errors.New("p() expects a property path string")
	}

	if p.peekKind(tokComma) {
		p.pos++
		def, err := p.parse(b)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return b.LookupDefault(path, def), nil
	}

	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return b.Lookup(path)
}

// resolvePath routes a dotted reference to the right part of the binding.
func resolvePath(path []string, b *binding.Binding) (any, error) {
	full := strings.Join(path, ".")

	switch path[0] {
	case "name":
		if len(path) > 1 {
			return nil, fmt.Errorf("can't resolve '%s'", full)
		}
		return b.Name, nil

	case "index":
		if len(path) > 1 {
			return nil, fmt.Errorf("can't resolve '%s'", full)
		}
		return b.Index, nil

	case "spec":
		if len(path) < 2 {
			return nil, errors.New("can't resolve 'spec' without a field")
		}
		v, err := b.SpecField(path[1])
		if err != nil {
			return nil, err
		}
		return walkTree(v, path[2:], full)

	case "properties":
		if len(path) < 2 {
			return nil, errors.New("can't resolve 'properties' without a path")
		}
		return b.Lookup(strings.Join(path[1:], "."))

	default:
		v, err := b.Var(path[0])
		if err != nil {
			return nil, err
		}
		return walkTree(v, path[1:], full)
	}
}

// walkTree follows remaining path segments through nested mappings.
func walkTree(v any, rest []string, full string) (any, error) {
	for _, seg := range rest {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("can't resolve '%s'", full)
		}
		v, ok = m[seg]
		if !ok {
			return nil, fmt.Errorf("can't resolve '%s'", full)
		}
	}
	return v, nil
}
