// Package monit generates normalized process-supervision configuration for
// installed jobs.
//
// Rendered monit text is rewritten into canonical single-line stanzas: one
// line per `check` block, whitespace collapsed, and an explicit
// `mode manual` appended to any block that does not declare a mode of its
// own. Manual mode is the shared convention: the supervisor never starts or
// stops a job the orchestrator didn't ask about.
package monit

import (
	"strings"
	"unicode"
)

// Normalize rewrites rendered monit text into single-line stanzas.
//
// A new block begins at each line opening a supervision header
// (`check <kind> <name> ...`). Blank lines separate nothing and carry no
// content. Within a block, double-quoted substrings are atomic tokens; a
// quoted argument containing the word "mode" does not count as a mode
// directive. Blocks without an unquoted `mode` token get `mode manual`
// appended. Empty input yields empty output.
func Normalize(text string) string {
	var stanzas []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		if !hasMode(current) {
			current = append(current, "mode", "manual")
		}
		stanzas = append(stanzas, strings.Join(current, " "))
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "check" {
			flush()
		}
		current = append(current, tokens...)
	}
	flush()

	return strings.Join(stanzas, " ")
}

// hasMode reports whether any unquoted token is the mode directive.
// Quoted tokens retain their surrounding quotes, so a plain comparison
// never matches inside a quoted argument.
func hasMode(tokens []string) bool {
	for _, tok := range tokens {
		if tok == "mode" {
			return true
		}
	}
	return false
}

// tokenize splits one line on whitespace, keeping double-quoted substrings
// (quotes included) as single tokens.
func tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuote := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case !inQuote && unicode.IsSpace(r):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}
