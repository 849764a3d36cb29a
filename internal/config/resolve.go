package config

import (
	"fmt"

	"github.com/mvp-joe/archextract/internal/extract"
)

// ConfigLoader loads the base module named by an extends reference. The
// returned module may leave built-in slots unset.
type ConfigLoader func(source string) (*Module, error)

// MissingComponentRuleError reports a built-in type that a module neither
// declares nor inherits.
type MissingComponentRuleError struct {
	Module string
	Rule   ComponentType
}

func (e *MissingComponentRuleError) Error() string {
	return fmt.Sprintf("module '%s' is missing required rule '%s'", e.Module, e.Rule)
}

// ConfigLoaderRequiredError reports a module with extends resolved without a
// loader.
type ConfigLoaderRequiredError struct {
	Module  string
	Extends string
}

func (e *ConfigLoaderRequiredError) Error() string {
	return fmt.Sprintf("module '%s' uses extends but no config loader was provided", e.Module)
}

// Resolve compiles every module of raw, expanding extends through loader.
// Every built-in type of every resolved module carries exactly one rule.
func Resolve(raw *Config, loader ConfigLoader) (*ResolvedConfig, error) {
	resolved := &ResolvedConfig{
		Include: raw.Include,
		Ignore:  raw.Ignore,
		Output:  raw.Output,
		Modules: make([]*Module, 0, len(raw.Modules)),
	}

	for i := range raw.Modules {
		m, err := resolveModule(&raw.Modules[i], loader)
		if err != nil {
			return nil, err
		}
		resolved.Modules = append(resolved.Modules, m)
	}

	return resolved, nil
}

func resolveModule(mc *ModuleConfig, loader ConfigLoader) (*Module, error) {
	local, err := compileModule(mc)
	if err != nil {
		return nil, err
	}

	if mc.Extends == "" {
		if err := requireBuiltins(local); err != nil {
			return nil, err
		}
		return local, nil
	}

	if loader == nil {
		return nil, &ConfigLoaderRequiredError{Module: mc.Name, Extends: mc.Extends}
	}

	base, err := loader(mc.Extends)
	if err != nil {
		return nil, fmt.Errorf("module '%s': failed to load '%s': %w", mc.Name, mc.Extends, err)
	}

	merged := merge(local, base)
	if err := requireBuiltins(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// merge overlays local on base: per built-in slot local wins, custom types
// merge key by key with local entries replacing inherited ones.
func merge(local, base *Module) *Module {
	out := &Module{
		Name:        local.Name,
		Path:        local.Path,
		Rules:       make(map[ComponentType]*Rule, len(BuiltinTypes)),
		CustomTypes: make(map[string]*Rule),
	}
	if base == nil {
		base = &Module{}
	}

	for _, t := range BuiltinTypes {
		if r := local.Rules[t]; r != nil {
			out.Rules[t] = r
		} else if r := base.Rules[t]; r != nil {
			out.Rules[t] = r
		}
	}

	for name, r := range base.CustomTypes {
		out.CustomTypes[name] = r
	}
	for name, r := range local.CustomTypes {
		out.CustomTypes[name] = r
	}

	return out
}

func requireBuiltins(m *Module) error {
	for _, t := range BuiltinTypes {
		if m.Rules[t] == nil {
			return &MissingComponentRuleError{Module: m.Name, Rule: t}
		}
	}
	return nil
}

// compileModule converts the declared rules of mc into compiled rules. Slots
// that mc leaves unset stay absent from Rules.
func compileModule(mc *ModuleConfig) (*Module, error) {
	m := &Module{
		Name:        mc.Name,
		Path:        mc.Path,
		Rules:       make(map[ComponentType]*Rule, len(BuiltinTypes)),
		CustomTypes: make(map[string]*Rule, len(mc.CustomTypes)),
	}

	for _, t := range BuiltinTypes {
		rc := mc.Builtin(t)
		if rc == nil {
			continue
		}
		r, err := compileRule(rc)
		if err != nil {
			return nil, fmt.Errorf("module '%s': %s: %w", mc.Name, t, err)
		}
		m.Rules[t] = r
	}

	for name, rc := range mc.CustomTypes {
		if rc == nil {
			continue
		}
		r, err := compileRule(rc)
		if err != nil {
			return nil, fmt.Errorf("module '%s': customTypes.%s: %w", mc.Name, name, err)
		}
		m.CustomTypes[name] = r
	}

	return m, nil
}

func compileRule(rc *RuleConfig) (*Rule, error) {
	if rc.NotUsed {
		return &Rule{NotUsed: true}, nil
	}

	r := &Rule{
		Find:  rc.Find.Kind(),
		Where: rc.Where,
	}
	if len(rc.Extract) > 0 {
		r.Extract = make(map[string]extract.Rule, len(rc.Extract))
		for field, spec := range rc.Extract {
			er, err := spec.Rule()
			if err != nil {
				return nil, fmt.Errorf("extract.%s: %w", field, err)
			}
			r.Extract[field] = er
		}
	}
	return r, nil
}
