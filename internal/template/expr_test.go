package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/stevedore/internal/binding"
)

func testBinding() *binding.Binding {
	return binding.New("ccdb", 42,
		map[string]any{"version": "0.7.1", "template": "ccdb"},
		map[string]any{"key1": "value1", "key2": "value2"},
		map[string]any{
			"a": "b",
			"db": map[string]any{
				"port": 5432,
				"host": "db.local",
			},
		},
	)
}

func TestExpressionEvaluator(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "scalar variable",
			src:  "<%key1%>",
			want: "value1",
		},
		{
			name: "second scalar variable",
			src:  "<%key2%>",
			want: "value2",
		},
		{
			name: "name and index",
			src:  "<%name%>, <%index%>",
			want: "ccdb, 42",
		},
		{
			name: "property path",
			src:  "<%properties.a%>",
			want: "b",
		},
		{
			name: "nested property path",
			src:  "host=<%properties.db.host%> port=<%properties.db.port%>",
			want: "host=db.local port=5432",
		},
		{
			name: "spec field",
			src:  "<%spec.version%>",
			want: "0.7.1",
		},
		{
			name: "lookup function",
			src:  "<% p('db.port') %>",
			want: "5432",
		},
		{
			name: "lookup function with default used",
			src:  "<% p('db.pool', 10) %>",
			want: "10",
		},
		{
			name: "lookup function with default unused",
			src:  "<% p('db.host', 'fallback') %>",
			want: "db.local",
		},
		{
			name: "string literal",
			src:  `<% "literal" %>`,
			want: "literal",
		},
		{
			name: "booleans",
			src:  "<%true%>/<%false%>",
			want: "true/false",
		},
		{
			name: "surrounding text preserved",
			src:  "before <%key1%> after\nline two <%properties.a%>\n",
			want: "before value1 after\nline two b\n",
		},
		{
			name: "no expressions",
			src:  "plain text only",
			want: "plain text only",
		},
		{
			name: "empty source",
			src:  "",
			want: "",
		},
	}

	eval := NewExpressionEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(tt.src, testBinding())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpressionEvaluatorErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "missing property",
			src:      "<%properties.a.b%>",
			wantLine: 1,
			wantMsg:  "can't find property 'a.b'",
		},
		{
			name:     "missing property via lookup",
			src:      "\n\n<% p('no.such.thing') %>",
			wantLine: 3,
			wantMsg:  "can't find property 'no.such.thing'",
		},
		{
			name:     "missing spec field",
			src:      "line1\n<%spec.sha2%>",
			wantLine: 2,
			wantMsg:  "can't find spec field 'sha2'",
		},
		{
			name:     "undefined variable",
			src:      "<%key3%>",
			wantLine: 1,
			wantMsg:  "undefined variable 'key3'",
		},
		{
			name:     "unterminated expression",
			src:      "ok\n<%key1",
			wantLine: 2,
			wantMsg:  "unterminated expression",
		},
		{
			name:     "empty expression",
			src:      "<% %>",
			wantLine: 1,
			wantMsg:  "empty expression",
		},
	}

	eval := NewExpressionEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Evaluate(tt.src, testBinding())
			require.Error(t, err)

			var re *RenderError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.wantLine, re.Line)
			assert.Equal(t, tt.wantMsg, re.Message)
		})
	}
}

func TestRendererRequiresBinding(t *testing.T) {
	r := NewRenderer(NewExpressionEvaluator())

	_, err := r.Render("<%key1%>", nil)
	require.ErrorIs(t, err, ErrNoBinding)
	assert.Equal(t, "unable to bind configuration, no binding provided", err.Error())
}

func TestRenderErrorFormat(t *testing.T) {
	err := &RenderError{Line: 3, Message: "can't find property 'a'"}
	assert.Equal(t, "line 3, error: can't find property 'a'", err.Error())
}
