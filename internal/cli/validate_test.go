package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/archextract/internal/config"
	"github.com/mvp-joe/archextract/internal/extract"
	"github.com/mvp-joe/archextract/internal/predicate"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// Test Plan for validate command:
// - prints discovery settings and every module's resolved rules
// - custom types are listed after built-in types
// - modules inheriting rules through extends show the inherited rules
// - invalid configuration is reported as an error
// - describeRule and ruleVariant render rules on one line
// - include extensions without a parser are marked

func TestRunValidate(t *testing.T) {
	t.Parallel()

	dir := setupTestProject(t)
	var out bytes.Buffer

	require.NoError(t, runValidate(&out, dir, ""))

	text := out.String()
	assert.Contains(t, text, "Config:  "+filepath.Join(dir, "archextract.yaml"))
	assert.Contains(t, text, "Include: **/*.ts")
	assert.Contains(t, text, "Sources: .ts\n")
	assert.Contains(t, text, "Modules (1):")
	assert.Contains(t, text, "  orders (src/orders/**)")
	assert.Contains(t, text, `api:          methods where {"hasDecorator":{"name":["Get"]}} extract route=fromDecoratorArg`)
	assert.Contains(t, text, "domainOp:     notUsed")
	assert.Contains(t, text, `repository:   classes where {"implementsInterface":{"name":"Repository"}}`)
	assert.Contains(t, text, "✓ Configuration is valid")

	assert.Less(t, strings.Index(text, "ui:"), strings.Index(text, "repository:"))
}

func TestRunValidate_Extends(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "archextract.yaml", `
modules:
  - name: billing
    path: "billing/**"
    extends: presets/base.yaml
    ui: notUsed
`)
	writeTestFile(t, dir, "presets/base.yaml", `
api:
  find: functions
  where: { hasJSDoc: { tag: api } }
useCase: notUsed
domainOp: notUsed
event: notUsed
eventHandler: notUsed
ui:
  find: classes
  where: { nameEndsWith: { suffix: Page } }
`)

	var out bytes.Buffer
	require.NoError(t, runValidate(&out, dir, ""))

	text := out.String()
	assert.Contains(t, text, `api:          functions where {"hasJSDoc":{"tag":"api"}}`)
	assert.Contains(t, text, "ui:           notUsed")
}

func TestRunValidate_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, dir, "archextract.yaml", "modules: []\n")

	var out bytes.Buffer
	err := runValidate(&out, dir, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrNoModules)
	assert.Empty(t, out.String())
}

func TestDescribeRule(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "missing", describeRule(nil))
	assert.Equal(t, "notUsed", describeRule(&config.Rule{NotUsed: true}))

	rule := &config.Rule{
		Find:  syntax.KindMethod,
		Where: &predicate.Predicate{NameEndsWith: &predicate.NameEndsWith{Suffix: "Handler"}},
		Extract: map[string]extract.Rule{
			"topic": &extract.FromProperty{Name: "topic"},
			"kind":  &extract.Literal{Value: "handler"},
		},
	}
	assert.Equal(t, `methods where {"nameEndsWith":{"suffix":"Handler"}} extract kind=literal, topic=fromProperty`, describeRule(rule))

	assert.Equal(t, "fromConstructorParams", ruleVariant(&extract.FromConstructorParams{}))
}

func TestDescribeExtensions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "any", describeExtensions(nil))
	assert.Equal(t, ".ts, .tsx, .java", describeExtensions([]string{".ts", ".tsx", ".java"}))
	assert.Equal(t, ".mjs, .py (no parser, skipped)", describeExtensions([]string{".mjs", ".py"}))
}
