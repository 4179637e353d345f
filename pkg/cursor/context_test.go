package cursor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jinjals/pkg/cursor"
	"github.com/walteh/jinjals/pkg/jinja"
)

// resolveAt resolves the context at the position of the "¦" marker in src.
func resolveAt(t *testing.T, src string) cursor.Context {
	t.Helper()
	offset := strings.Index(src, "¦")
	require.GreaterOrEqual(t, offset, 0, "test source must contain a ¦ cursor marker")
	clean := strings.Replace(src, "¦", "", 1)
	return cursor.Resolve(jinja.Lex(clean), offset)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want cursor.Context
	}{
		{
			name: "property after dot",
			src:  "{{ user.¦",
			want: cursor.Context{Kind: cursor.KindProperty, Name: "user"},
		},
		{
			name: "property with typed prefix",
			src:  "{{ user.na¦me }}",
			want: cursor.Context{Kind: cursor.KindProperty, Name: "user", Prefix: "na"},
		},
		{
			name: "test after is",
			src:  "{% if val is ¦",
			want: cursor.Context{Kind: cursor.KindTest},
		},
		{
			name: "filter with partial name",
			src:  "{{ value | tr¦ }}",
			want: cursor.Context{Kind: cursor.KindFilter, Prefix: "tr"},
		},
		{
			name: "filter immediately after pipe",
			src:  "{{ value |¦ }}",
			want: cursor.Context{Kind: cursor.KindFilter},
		},
		{
			name: "variable after open delimiter",
			src:  "{{ ¦",
			want: cursor.Context{Kind: cursor.KindVariable},
		},
		{
			name: "tag name position",
			src:  "{% fo¦",
			want: cursor.Context{Kind: cursor.KindTag, Prefix: "fo"},
		},
		{
			name: "end tag refinement",
			src:  "{% endblo¦",
			want: cursor.Context{Kind: cursor.KindEndTag, Prefix: "blo"},
		},
		{
			name: "block name",
			src:  "{% block con¦",
			want: cursor.Context{Kind: cursor.KindBlockName, Prefix: "con"},
		},
		{
			name: "macro name after call",
			src:  "{% call gre¦ %}",
			want: cursor.Context{Kind: cursor.KindMacroName, Prefix: "gre"},
		},
		{
			name: "expression position inside if tag",
			src:  "{% if count > limi¦t %}",
			want: cursor.Context{Kind: cursor.KindVariable, Prefix: "limi"},
		},
		{
			name: "blank space inside expression tag",
			src:  "{% for item in items ¦ %}",
			want: cursor.Context{Kind: cursor.KindVariable},
		},
		{
			name: "plain text is no context",
			src:  "hello ¦world {{ x }}",
			want: cursor.Context{Kind: cursor.KindNone},
		},
		{
			name: "after closed region is no context",
			src:  "{{ x }} ¦",
			want: cursor.Context{Kind: cursor.KindNone},
		},
		{
			name: "template path position is no symbol context",
			src:  `{% extends "ba¦se.j2" %}`,
			want: cursor.Context{Kind: cursor.KindNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAt(t, tt.src))
		})
	}
}

func TestResolveOutOfRange(t *testing.T) {
	tokens := jinja.Lex("{{ x }}")
	assert.Equal(t, cursor.KindNone, cursor.Resolve(tokens, -1).Kind)
	assert.Equal(t, cursor.KindNone, cursor.Resolve(nil, 0).Kind)
}

func TestSignatureContext(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantCallee string
		wantArg    int
		wantOK     bool
	}{
		{
			name:       "first argument",
			src:        "{{ greet(¦",
			wantCallee: "greet",
			wantArg:    0,
			wantOK:     true,
		},
		{
			name:       "second argument",
			src:        "{{ greet(name, ¦",
			wantCallee: "greet",
			wantArg:    1,
			wantOK:     true,
		},
		{
			name:       "nested call binds to inner callee",
			src:        "{{ outer(a, inner(b, ¦",
			wantCallee: "inner",
			wantArg:    1,
			wantOK:     true,
		},
		{
			name:       "closed nested call counts at outer level",
			src:        "{{ outer(inner(a, b), ¦",
			wantCallee: "outer",
			wantArg:    1,
			wantOK:     true,
		},
		{
			name:   "not inside a call",
			src:    "{{ value ¦ }}",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset := strings.Index(tt.src, "¦")
			require.GreaterOrEqual(t, offset, 0)
			clean := strings.Replace(tt.src, "¦", "", 1)

			sig, ok := cursor.SignatureContext(jinja.Lex(clean), offset)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCallee, sig.Callee)
				assert.Equal(t, tt.wantArg, sig.ActiveArg)
			}
		})
	}
}
