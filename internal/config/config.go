package config

import (
	"github.com/mvp-joe/archextract/internal/extract"
	"github.com/mvp-joe/archextract/internal/predicate"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// ComponentType names a kind of architectural component.
type ComponentType string

const (
	API          ComponentType = "api"
	UseCase      ComponentType = "useCase"
	DomainOp     ComponentType = "domainOp"
	Event        ComponentType = "event"
	EventHandler ComponentType = "eventHandler"
	UI           ComponentType = "ui"
)

// BuiltinTypes lists the built-in component types in extraction order.
var BuiltinTypes = []ComponentType{API, UseCase, DomainOp, Event, EventHandler, UI}

// IsBuiltin reports whether t is one of the six built-in types.
func IsBuiltin(t ComponentType) bool {
	for _, b := range BuiltinTypes {
		if b == t {
			return true
		}
	}
	return false
}

// FindTarget selects which declarations a rule inspects.
type FindTarget string

const (
	FindClasses   FindTarget = "classes"
	FindMethods   FindTarget = "methods"
	FindFunctions FindTarget = "functions"
)

// Kind maps the target to a declaration kind. Unknown targets map to "".
func (f FindTarget) Kind() syntax.DeclarationKind {
	switch f {
	case FindClasses:
		return syntax.KindClass
	case FindMethods:
		return syntax.KindMethod
	case FindFunctions:
		return syntax.KindFunction
	}
	return ""
}

// Config is the archextract configuration as declared in archextract.yaml.
type Config struct {
	Include []string       `yaml:"include" mapstructure:"include"` // glob patterns of source files
	Ignore  []string       `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
	Output  string         `yaml:"output" mapstructure:"output"`   // JSON output path, "-" for stdout
	Modules []ModuleConfig `yaml:"modules" mapstructure:"modules"`

	// Dir is the directory holding the config file. Relative extends
	// sources resolve against it.
	Dir string `yaml:"-" mapstructure:"-"`
}

// ModuleConfig is one module as declared by the user. Built-in rules are
// optional when Extends names a base module document.
type ModuleConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Path    string `yaml:"path" mapstructure:"path"` // glob over project-relative paths
	Extends string `yaml:"extends" mapstructure:"extends"`

	API          *RuleConfig `yaml:"api" mapstructure:"api"`
	UseCase      *RuleConfig `yaml:"useCase" mapstructure:"useCase"`
	DomainOp     *RuleConfig `yaml:"domainOp" mapstructure:"domainOp"`
	Event        *RuleConfig `yaml:"event" mapstructure:"event"`
	EventHandler *RuleConfig `yaml:"eventHandler" mapstructure:"eventHandler"`
	UI           *RuleConfig `yaml:"ui" mapstructure:"ui"`

	CustomTypes map[string]*RuleConfig `yaml:"customTypes" mapstructure:"customTypes"`
}

// Builtin returns the declared rule for a built-in type, or nil.
func (m *ModuleConfig) Builtin(t ComponentType) *RuleConfig {
	switch t {
	case API:
		return m.API
	case UseCase:
		return m.UseCase
	case DomainOp:
		return m.DomainOp
	case Event:
		return m.Event
	case EventHandler:
		return m.EventHandler
	case UI:
		return m.UI
	}
	return nil
}

// RuleConfig is a detection rule as declared. The scalar "notUsed" decodes to
// a RuleConfig with NotUsed set.
type RuleConfig struct {
	NotUsed bool                    `yaml:"notUsed" mapstructure:"notUsed"`
	Find    FindTarget              `yaml:"find" mapstructure:"find"`
	Where   *predicate.Predicate    `yaml:"where" mapstructure:"where"`
	Extract map[string]extract.Spec `yaml:"extract" mapstructure:"extract"`
}

// Rule is a compiled detection rule.
type Rule struct {
	NotUsed bool
	Find    syntax.DeclarationKind
	Where   *predicate.Predicate
	Extract map[string]extract.Rule
}

// Module is a module with its rules compiled. After resolution every
// built-in type has a rule.
type Module struct {
	Name        string
	Path        string
	Rules       map[ComponentType]*Rule
	CustomTypes map[string]*Rule
}

// ResolvedConfig is the configuration after extends resolution.
type ResolvedConfig struct {
	Include []string
	Ignore  []string
	Output  string
	Modules []*Module
}

// Default returns a configuration with the default discovery settings and
// no modules.
func Default() *Config {
	return &Config{
		Include: []string{
			"**/*.ts",
			"**/*.tsx",
			"**/*.java",
		},
		Ignore: []string{
			"node_modules/**",
			"dist/**",
			"build/**",
			"target/**",
			".git/**",
			"**/*.d.ts",
			"**/*.spec.ts",
			"**/*.test.ts",
		},
		Output: "components.json",
	}
}

// SourceExtensions extracts unique file extensions from the include patterns.
// Returns extensions with leading dot (e.g., []string{".ts", ".java"}).
func (c *Config) SourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string
	for _, pattern := range c.Include {
		if ext := extractExtension(pattern); ext != "" && !seen[ext] {
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Examples: "**/*.java" -> ".java", "*.ts" -> ".ts", "src/**" -> "".
func extractExtension(pattern string) string {
	for i := len(pattern) - 1; i >= 1; i-- {
		if pattern[i] == '.' && pattern[i-1] == '*' {
			return pattern[i:]
		}
	}
	return ""
}
