package extract

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Rule is one of the extraction strategies below. The set is closed; Evaluate
// dispatches over it with a single type switch.
type Rule interface {
	isRule()
}

// Literal returns a fixed, configured value.
type Literal struct {
	Value any `mapstructure:"value"`
}

// FromClassName derives the value from the class name. For a method target
// the owning class is used.
type FromClassName struct {
	Transform *Transform `mapstructure:"transform"`
}

// FromMethodName derives the value from the method name.
type FromMethodName struct {
	Transform *Transform `mapstructure:"transform"`
}

// FromFilePath captures a regex group from the source file path.
type FromFilePath struct {
	Pattern   string     `mapstructure:"pattern"`
	Capture   int        `mapstructure:"capture"`
	Transform *Transform `mapstructure:"transform"`
}

// FromProperty reads the literal initializer of a class property, searching
// base classes when the property is not declared locally.
type FromProperty struct {
	Name      string     `mapstructure:"name"`
	Kind      string     `mapstructure:"kind"` // "static", "instance" or empty for either
	Transform *Transform `mapstructure:"transform"`
}

// FromDecoratorArg reads a string argument of a decorator, either by
// position or by property name within an object-literal first argument.
type FromDecoratorArg struct {
	Decorators []string   `mapstructure:"decorator"` // empty selects the first decorator
	Position   *int       `mapstructure:"position"`
	Name       string     `mapstructure:"name"`
	Transform  *Transform `mapstructure:"transform"`
}

// FromDecoratorName returns the decorator's own name, optionally remapped.
type FromDecoratorName struct {
	Decorators []string          `mapstructure:"decorator"` // empty selects the first decorator
	Mapping    map[string]string `mapstructure:"mapping"`
	Transform  *Transform        `mapstructure:"transform"`
}

// FromGenericArg returns the type argument names of an implemented interface.
type FromGenericArg struct {
	Interface string     `mapstructure:"interface"`
	Position  int        `mapstructure:"position"`
	Transform *Transform `mapstructure:"transform"`
}

// FromMethodSignature returns the parameters and return type of a method or
// function.
type FromMethodSignature struct{}

// FromConstructorParams returns the parameters of the class constructor.
type FromConstructorParams struct{}

// FromParameterType returns the type of the parameter at Position.
type FromParameterType struct {
	Position  int        `mapstructure:"position"`
	Transform *Transform `mapstructure:"transform"`
}

func (*Literal) isRule()               {}
func (*FromClassName) isRule()         {}
func (*FromMethodName) isRule()        {}
func (*FromFilePath) isRule()          {}
func (*FromProperty) isRule()          {}
func (*FromDecoratorArg) isRule()      {}
func (*FromDecoratorName) isRule()     {}
func (*FromGenericArg) isRule()        {}
func (*FromMethodSignature) isRule()   {}
func (*FromConstructorParams) isRule() {}
func (*FromParameterType) isRule()     {}

// ErrRuleVariant is returned when a Spec does not select exactly one rule.
var ErrRuleVariant = errors.New("extraction rule must set exactly one strategy")

// Spec is the configuration form of a Rule: exactly one field is set.
type Spec struct {
	Literal               *Literal               `mapstructure:"literal"`
	FromClassName         *FromClassName         `mapstructure:"fromClassName"`
	FromMethodName        *FromMethodName        `mapstructure:"fromMethodName"`
	FromFilePath          *FromFilePath          `mapstructure:"fromFilePath"`
	FromProperty          *FromProperty          `mapstructure:"fromProperty"`
	FromDecoratorArg      *FromDecoratorArg      `mapstructure:"fromDecoratorArg"`
	FromDecoratorName     *FromDecoratorName     `mapstructure:"fromDecoratorName"`
	FromGenericArg        *FromGenericArg        `mapstructure:"fromGenericArg"`
	FromMethodSignature   *FromMethodSignature   `mapstructure:"fromMethodSignature"`
	FromConstructorParams *FromConstructorParams `mapstructure:"fromConstructorParams"`
	FromParameterType     *FromParameterType     `mapstructure:"fromParameterType"`
}

// Rule returns the single strategy set on s.
func (s Spec) Rule() (Rule, error) {
	candidates := map[string]Rule{}
	add := func(name string, set bool, r Rule) {
		if set {
			candidates[name] = r
		}
	}
	add("literal", s.Literal != nil, s.Literal)
	add("fromClassName", s.FromClassName != nil, s.FromClassName)
	add("fromMethodName", s.FromMethodName != nil, s.FromMethodName)
	add("fromFilePath", s.FromFilePath != nil, s.FromFilePath)
	add("fromProperty", s.FromProperty != nil, s.FromProperty)
	add("fromDecoratorArg", s.FromDecoratorArg != nil, s.FromDecoratorArg)
	add("fromDecoratorName", s.FromDecoratorName != nil, s.FromDecoratorName)
	add("fromGenericArg", s.FromGenericArg != nil, s.FromGenericArg)
	add("fromMethodSignature", s.FromMethodSignature != nil, s.FromMethodSignature)
	add("fromConstructorParams", s.FromConstructorParams != nil, s.FromConstructorParams)
	add("fromParameterType", s.FromParameterType != nil, s.FromParameterType)

	switch len(candidates) {
	case 1:
		for _, r := range candidates {
			return r, nil
		}
	case 0:
		return nil, fmt.Errorf("%w: none set", ErrRuleVariant)
	}

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("%w: got %s", ErrRuleVariant, strings.Join(names, ", "))
}
