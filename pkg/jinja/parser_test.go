package jinja_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/jinjals/pkg/jinja"
)

func TestParseExtendsAndBlock(t *testing.T) {
	tpl, diags, err := jinja.Parse(`{% extends "base.j2" %}{% block content %}{{ user.name }}{% endblock %}`)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, tpl.Body, 2)

	extends, ok := tpl.Body[0].(*jinja.Extends)
	require.True(t, ok)
	path, ok := jinja.TemplateString(extends.Template)
	require.True(t, ok)
	assert.Equal(t, "base.j2", path)

	block, ok := tpl.Body[1].(*jinja.Block)
	require.True(t, ok)
	assert.Equal(t, "content", block.Name)
	require.Len(t, block.Body, 1)

	output, ok := block.Body[0].(*jinja.Output)
	require.True(t, ok)
	attr, ok := output.Expr.(*jinja.GetAttr)
	require.True(t, ok)
	assert.Equal(t, "name", attr.Attr)
	name, ok := attr.Target.(*jinja.Name)
	require.True(t, ok)
	assert.Equal(t, "user", name.Name)
}

func TestParseMacro(t *testing.T) {
	tpl, diags, err := jinja.Parse(`{% macro button(label, kind="primary") %}{{ label }}{% endmacro %}`)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, tpl.Body, 1)

	macro, ok := tpl.Body[0].(*jinja.Macro)
	require.True(t, ok)
	assert.Equal(t, "button", macro.Name)
	require.Len(t, macro.Params, 2)
	assert.Equal(t, "label", macro.Params[0].Name)
	assert.Nil(t, macro.Params[0].Default)
	assert.Equal(t, "kind", macro.Params[1].Name)
	require.NotNil(t, macro.Params[1].Default)

	def, ok := macro.Params[1].Default.(*jinja.Literal)
	require.True(t, ok)
	assert.Equal(t, "primary", def.Value)
}

func TestParseForWithTupleTargets(t *testing.T) {
	tpl, _, err := jinja.Parse(`{% for key, value in mapping.items() %}{{ key }}{% endfor %}`)
	require.NoError(t, err)
	require.Len(t, tpl.Body, 1)

	loop, ok := tpl.Body[0].(*jinja.For)
	require.True(t, ok)
	require.Len(t, loop.Targets, 2)
	assert.Equal(t, "key", loop.Targets[0].Name)
	assert.Equal(t, "value", loop.Targets[1].Name)

	call, ok := loop.Iter.(*jinja.Call)
	require.True(t, ok)
	attr, ok := call.Target.(*jinja.GetAttr)
	require.True(t, ok)
	assert.Equal(t, "items", attr.Attr)
}

func TestParseSetForms(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		tpl, _, err := jinja.Parse(`{% set total = price * count %}`)
		require.NoError(t, err)
		require.Len(t, tpl.Body, 1)

		set, ok := tpl.Body[0].(*jinja.Set)
		require.True(t, ok)
		require.Len(t, set.Targets, 1)
		assert.Equal(t, "total", set.Targets[0].Name)

		binary, ok := set.Value.(*jinja.Binary)
		require.True(t, ok)
		assert.Equal(t, "*", binary.Op)
	})

	t.Run("block form", func(t *testing.T) {
		tpl, _, err := jinja.Parse(`{% set banner %}Hello{% endset %}`)
		require.NoError(t, err)
		require.Len(t, tpl.Body, 1)

		set, ok := tpl.Body[0].(*jinja.SetBlock)
		require.True(t, ok)
		require.NotNil(t, set.Target)
		assert.Equal(t, "banner", set.Target.Name)
	})
}

func TestParseIfElifElse(t *testing.T) {
	tpl, diags, err := jinja.Parse(`{% if a %}1{% elif b %}2{% else %}3{% endif %}`)
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, tpl.Body, 1)

	ifStmt, ok := tpl.Body[0].(*jinja.If)
	require.True(t, ok)
	require.Len(t, ifStmt.Else, 1)

	elif, ok := ifStmt.Else[0].(*jinja.If)
	require.True(t, ok, "elif should nest as an If in Else")

	cond, ok := elif.Test.(*jinja.Name)
	require.True(t, ok)
	assert.Equal(t, "b", cond.Name)
}

func TestParseFromImport(t *testing.T) {
	tpl, _, err := jinja.Parse(`{% from "forms.j2" import field, button as btn %}`)
	require.NoError(t, err)
	require.Len(t, tpl.Body, 1)

	from, ok := tpl.Body[0].(*jinja.FromImport)
	require.True(t, ok)
	path, ok := jinja.TemplateString(from.Template)
	require.True(t, ok)
	assert.Equal(t, "forms.j2", path)

	require.Len(t, from.Names, 2)
	assert.Equal(t, "field", from.Names[0].Name)
	assert.Equal(t, "", from.Names[0].Alias)
	assert.Equal(t, "button", from.Names[1].Name)
	assert.Equal(t, "btn", from.Names[1].Alias)
}

func TestParseFilterAndTest(t *testing.T) {
	tpl, _, err := jinja.Parse(`{% if value is defined %}{{ value | join(", ") | upper }}{% endif %}`)
	require.NoError(t, err)
	require.Len(t, tpl.Body, 1)

	ifStmt := tpl.Body[0].(*jinja.If)
	test, ok := ifStmt.Test.(*jinja.Test)
	require.True(t, ok)
	assert.Equal(t, "defined", test.Name)

	output := ifStmt.Body[0].(*jinja.Output)
	upper, ok := output.Expr.(*jinja.Filter)
	require.True(t, ok)
	assert.Equal(t, "upper", upper.Name)

	join, ok := upper.Target.(*jinja.Filter)
	require.True(t, ok)
	assert.Equal(t, "join", join.Name)
	require.Len(t, join.Args, 1)
}

func TestParseDynamicTemplateRef(t *testing.T) {
	tpl, _, err := jinja.Parse(`{% include layout_for(page) %}`)
	require.NoError(t, err)
	require.Len(t, tpl.Body, 1)

	include, ok := tpl.Body[0].(*jinja.Include)
	require.True(t, ok)
	_, literal := jinja.TemplateString(include.Template)
	assert.False(t, literal, "dynamic include path is not statically resolvable")
}

func TestParseRecoversFromMalformedTag(t *testing.T) {
	tpl, diags, err := jinja.Parse(`{% if %}broken{% endif %}{{ user.name }}`)
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
	require.NotNil(t, tpl)

	// the healthy output statement after the broken tag still parses
	var sawOutput bool
	for _, stmt := range tpl.Body {
		if _, ok := stmt.(*jinja.Output); ok {
			sawOutput = true
		}
	}
	assert.True(t, sawOutput)
}

func TestParseCustomTag(t *testing.T) {
	tpl, _, err := jinja.Parse(`{% cache user.id %}{{ user.name }}{% endcache %}`)
	require.NoError(t, err)
	require.NotEmpty(t, tpl.Body)

	custom, ok := tpl.Body[0].(*jinja.CustomTag)
	require.True(t, ok)
	assert.Equal(t, "cache", custom.Name)
	require.NotEmpty(t, custom.Args)
}

func TestParseSpanAccuracy(t *testing.T) {
	src := `{% block content %}{% endblock %}`
	tpl, _, err := jinja.Parse(src)
	require.NoError(t, err)
	block := tpl.Body[0].(*jinja.Block)

	assert.Equal(t, "content", src[block.NameSpan.Start.Offset:block.NameSpan.End.Offset])
	assert.Equal(t, 0, block.Span().Start.Offset)
	assert.Equal(t, len(src), block.Span().End.Offset)
}
