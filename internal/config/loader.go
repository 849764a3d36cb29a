package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

// DefaultConfigNames are the file names searched when no config path is given.
var DefaultConfigNames = []string{"archextract.yaml", "archextract.yml", "archextract.json"}

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	path string
}

// NewLoader creates a configuration loader for the given config file.
func NewLoader(path string) Loader {
	return &loader{
		path: path,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (ARCHEXTRACT_INCLUDE, ARCHEXTRACT_IGNORE, ARCHEXTRACT_OUTPUT)
// 2. Config file
// 3. Default values
//
// Module definitions are only read from the file. They are decoded outside
// viper because viper folds keys to lower case, and custom type names and
// decorator mappings are case-sensitive.
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(l.path)
	if ext := strings.TrimPrefix(filepath.Ext(l.path), "."); ext == "yml" || ext == "" {
		v.SetConfigType("yaml")
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("ARCHEXTRACT")
	v.AutomaticEnv()
	v.BindEnv("include")
	v.BindEnv("ignore")
	v.BindEnv("output")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", l.path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		Include: v.GetStringSlice("include"),
		Ignore:  v.GetStringSlice("ignore"),
		Output:  v.GetString("output"),
	}
	if abs, err := filepath.Abs(l.path); err == nil {
		cfg.Dir = filepath.Dir(abs)
	} else {
		cfg.Dir = filepath.Dir(l.path)
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc struct {
		Modules []map[string]any `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse modules: %w", err)
	}
	for i, raw := range doc.Modules {
		var mc ModuleConfig
		if err := decode(raw, &mc); err != nil {
			return nil, fmt.Errorf("failed to decode module %d: %w", i, err)
		}
		cfg.Modules = append(cfg.Modules, mc)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("include", defaults.Include)
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("output", defaults.Output)
}

// FindConfigFile returns the first default config file present in dir.
func FindConfigFile(dir string) (string, error) {
	for _, name := range DefaultConfigNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no config file found in %s (looked for %s)", dir, strings.Join(DefaultConfigNames, ", "))
}

// LoadConfigFromFile is a convenience function that creates a loader and loads config.
func LoadConfigFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// decode maps a generic YAML/JSON tree onto out. Unknown keys are errors so
// misspelled rule names fail loudly; scalars widen to single-element lists
// where a list is expected.
func decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       shorthandHook,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var (
	ruleConfigType    = reflect.TypeOf(RuleConfig{})
	ruleConfigPtrType = reflect.TypeOf(&RuleConfig{})
)

// shorthandHook expands scalar shorthands: a rule written as the string
// "notUsed", and parameterless extraction strategies written as true.
func shorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to == ruleConfigType || to == ruleConfigPtrType {
		if s, ok := data.(string); ok && s == "notUsed" {
			return map[string]any{"notUsed": true}, nil
		}
		return data, nil
	}
	if from.Kind() == reflect.Bool && isEmptyStruct(to) {
		return map[string]any{}, nil
	}
	return data, nil
}

func isEmptyStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t.NumField() == 0
}
