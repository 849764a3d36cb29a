package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/archextract/internal/extract"
	"github.com/mvp-joe/archextract/internal/predicate"
)

var (
	// ErrNoModules indicates a configuration without any module
	ErrNoModules = errors.New("no modules configured")

	// ErrInvalidModule indicates a module with a missing or duplicate name or path
	ErrInvalidModule = errors.New("invalid module")

	// ErrInvalidGlob indicates a pattern that does not compile
	ErrInvalidGlob = errors.New("invalid glob pattern")

	// ErrInvalidRule indicates a malformed detection or extraction rule
	ErrInvalidRule = errors.New("invalid rule")

	// ErrExtendsCycle indicates module documents that extend each other
	ErrExtendsCycle = errors.New("extends cycle")
)

// Validate checks that the configuration is structurally complete. It does
// not resolve extends; missing built-in rules are reported by Resolve.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePatterns("include", cfg.Include); err != nil {
		errs = append(errs, err)
	}
	if err := validatePatterns("ignore", cfg.Ignore); err != nil {
		errs = append(errs, err)
	}

	if len(cfg.Modules) == 0 {
		errs = append(errs, fmt.Errorf("%w: add at least one entry under 'modules'", ErrNoModules))
	}

	names := make(map[string]bool)
	for i := range cfg.Modules {
		m := &cfg.Modules[i]
		label := fmt.Sprintf("modules[%d]", i)
		if m.Name != "" {
			label = fmt.Sprintf("module '%s'", m.Name)
		}

		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: %s: name is required", ErrInvalidModule, label))
		} else if names[m.Name] {
			errs = append(errs, fmt.Errorf("%w: %s: duplicate module name", ErrInvalidModule, label))
		}
		names[m.Name] = true

		if strings.TrimSpace(m.Path) == "" {
			errs = append(errs, fmt.Errorf("%w: %s: path is required", ErrInvalidModule, label))
		} else if _, err := glob.Compile(m.Path, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: path '%s': %v", ErrInvalidGlob, label, m.Path, err))
		}

		if err := validateModuleRules(label, m); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePatterns(field string, patterns []string) error {
	var errs []error
	for _, p := range patterns {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s '%s': %v", ErrInvalidGlob, field, p, err))
		}
	}
	return joinErrors(errs)
}

// validateModuleRules checks every rule declared on a module or module
// document.
func validateModuleRules(label string, m *ModuleConfig) error {
	var errs []error

	for _, t := range BuiltinTypes {
		if rc := m.Builtin(t); rc != nil {
			if err := validateRule(fmt.Sprintf("%s: %s", label, t), rc); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, name := range sortedKeys(m.CustomTypes) {
		rc := m.CustomTypes[name]
		if IsBuiltin(ComponentType(name)) {
			errs = append(errs, fmt.Errorf("%w: %s: custom type '%s' shadows a built-in type", ErrInvalidRule, label, name))
			continue
		}
		if rc == nil {
			errs = append(errs, fmt.Errorf("%w: %s: custom type '%s' has no rule", ErrInvalidRule, label, name))
			continue
		}
		if err := validateRule(fmt.Sprintf("%s: customTypes.%s", label, name), rc); err != nil {
			errs = append(errs, err)
		}
	}

	return joinErrors(errs)
}

func validateRule(label string, rc *RuleConfig) error {
	if rc.NotUsed {
		if rc.Find != "" || rc.Where != nil || len(rc.Extract) > 0 {
			return fmt.Errorf("%w: %s: notUsed cannot be combined with find, where or extract", ErrInvalidRule, label)
		}
		return nil
	}

	var errs []error

	if rc.Find.Kind() == "" {
		errs = append(errs, fmt.Errorf("%w: %s: find must be 'classes', 'methods' or 'functions', got '%s'", ErrInvalidRule, label, rc.Find))
	}

	if err := predicate.Validate(rc.Where); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidRule, label, err))
	}

	for _, field := range sortedKeys(rc.Extract) {
		spec := rc.Extract[field]
		r, err := spec.Rule()
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: extract.%s: %v", ErrInvalidRule, label, field, err))
			continue
		}
		if err := validateExtraction(r); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: extract.%s: %v", ErrInvalidRule, label, field, err))
		}
	}

	return joinErrors(errs)
}

// validateExtraction catches parameter problems that would otherwise only
// surface on the first matching declaration.
func validateExtraction(r extract.Rule) error {
	switch r := r.(type) {
	case *extract.FromFilePath:
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("fromFilePath: invalid pattern %q: %v", r.Pattern, err)
		}
		if r.Capture < 0 {
			return fmt.Errorf("fromFilePath: capture must not be negative")
		}
	case *extract.FromProperty:
		if r.Name == "" {
			return fmt.Errorf("fromProperty: name is required")
		}
		if r.Kind != "" && r.Kind != "static" && r.Kind != "instance" {
			return fmt.Errorf("fromProperty: kind must be 'static' or 'instance', got '%s'", r.Kind)
		}
	case *extract.FromDecoratorArg:
		if r.Position == nil && r.Name == "" {
			return fmt.Errorf("fromDecoratorArg: requires either position or name")
		}
	case *extract.FromGenericArg:
		if r.Interface == "" {
			return fmt.Errorf("fromGenericArg: interface is required")
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// joinErrors combines multiple errors into a single error with clear
// formatting. The result still matches each error with errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var flat []error
	for _, err := range errs {
		if nested, ok := err.(*validationErrors); ok {
			flat = append(flat, nested.errs...)
			continue
		}
		flat = append(flat, err)
	}
	return &validationErrors{errs: flat}
}

type validationErrors struct {
	errs []error
}

func (e *validationErrors) Error() string {
	msgs := make([]string, 0, len(e.errs))
	for _, err := range e.errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func (e *validationErrors) Unwrap() []error {
	return e.errs
}
