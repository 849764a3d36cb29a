package extract

import (
	"fmt"
	"regexp"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// Parameter is a name/type pair; Type is "unknown" when not annotated.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// MethodSignature is the value produced by FromMethodSignature.
type MethodSignature struct {
	Parameters []Parameter `json:"parameters"`
	ReturnType string      `json:"returnType"`
}

const unknownType = "unknown"

// Evaluate derives a value from decl according to rule. The concrete result
// type depends on the rule: string, float64, bool, []string, []Parameter,
// MethodSignature, or the configured literal value.
func Evaluate(rule Rule, decl *syntax.Declaration) (any, error) {
	switch r := rule.(type) {
	case *Literal:
		return r.Value, nil
	case *FromClassName:
		return r.Transform.Apply(owningClass(decl).Name), nil
	case *FromMethodName:
		return r.Transform.Apply(decl.Name), nil
	case *FromFilePath:
		return evalFilePath(r, decl)
	case *FromProperty:
		return evalProperty(r, decl)
	case *FromDecoratorArg:
		return evalDecoratorArg(r, decl)
	case *FromDecoratorName:
		return evalDecoratorName(r, decl)
	case *FromGenericArg:
		return evalGenericArg(r, decl)
	case *FromMethodSignature:
		return evalMethodSignature(decl)
	case *FromConstructorParams:
		return evalConstructorParams(decl), nil
	case *FromParameterType:
		return evalParameterType(r, decl)
	default:
		return nil, fmt.Errorf("unsupported extraction rule %T", rule)
	}
}

// owningClass returns the class a method belongs to, or decl itself.
func owningClass(decl *syntax.Declaration) *syntax.Declaration {
	if decl.Kind == syntax.KindMethod && decl.Parent != nil {
		return decl.Parent
	}
	return decl
}

func evalFilePath(r *FromFilePath, decl *syntax.Declaration) (string, error) {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return "", newError(decl.File, decl.Line, "Invalid file path pattern '%s': %v", r.Pattern, err)
	}

	match := re.FindStringSubmatch(decl.File)
	if match == nil {
		return "", newError(decl.File, decl.Line, "Pattern '%s' did not match file path '%s'", r.Pattern, decl.File)
	}
	groups := len(match) - 1
	if r.Capture < 0 || r.Capture > groups {
		return "", newError(decl.File, decl.Line, "Capture group %d out of range: pattern '%s' has %d groups", r.Capture, r.Pattern, groups)
	}

	return r.Transform.Apply(match[r.Capture]), nil
}

func evalProperty(r *FromProperty, decl *syntax.Declaration) (any, error) {
	start := owningClass(decl)
	visited := make(map[*syntax.Declaration]bool)

	for cls := start; cls != nil && !visited[cls]; cls = cls.Base {
		visited[cls] = true

		prop := findProperty(cls, r.Name, r.Kind)
		if prop == nil {
			continue
		}

		line := prop.Line
		if line == 0 {
			line = cls.Line
		}
		lit, err := ExtractLiteral(prop.Initializer, cls.File, line)
		if err != nil {
			return nil, err
		}
		if lit.Kind == LiteralString {
			return r.Transform.Apply(lit.String), nil
		}
		return lit.Value(), nil
	}

	return nil, newError(decl.File, decl.Line, "Property '%s' not found on class '%s'", r.Name, start.DisplayName())
}

func findProperty(cls *syntax.Declaration, name, kind string) *syntax.Property {
	for i := range cls.Properties {
		p := &cls.Properties[i]
		if p.Name != name {
			continue
		}
		switch kind {
		case "static":
			if !p.Static {
				continue
			}
		case "instance":
			if p.Static {
				continue
			}
		}
		return p
	}
	return nil
}

// selectDecorator returns the first decorator whose name is in names, or the
// first decorator when names is empty.
func selectDecorator(decl *syntax.Declaration, names []string) (*syntax.Decorator, error) {
	if len(names) == 0 {
		if len(decl.Decorators) == 0 {
			return nil, newError(decl.File, decl.Line, "No decorator found on '%s'", decl.DisplayName())
		}
		return &decl.Decorators[0], nil
	}
	for i := range decl.Decorators {
		for _, name := range names {
			if decl.Decorators[i].Name == name {
				return &decl.Decorators[i], nil
			}
		}
	}
	return nil, newError(decl.File, decl.Line, "Decorator %v not found on '%s'", names, decl.DisplayName())
}

func evalDecoratorArg(r *FromDecoratorArg, decl *syntax.Declaration) (string, error) {
	dec, err := selectDecorator(decl, r.Decorators)
	if err != nil {
		return "", err
	}

	line := dec.Line
	if line == 0 {
		line = decl.Line
	}

	if r.Position == nil && r.Name == "" {
		return "", newError(decl.File, line, "fromDecoratorArg on '@%s' requires either position or name", dec.Name)
	}
	if len(dec.Args) == 0 {
		return "", newError(decl.File, line, "Decorator '@%s' has no arguments", dec.Name)
	}

	if r.Position != nil {
		pos := *r.Position
		if pos < 0 || pos >= len(dec.Args) {
			return "", newError(decl.File, line, "Decorator '@%s' has no argument at position %d (found %d)", dec.Name, pos, len(dec.Args))
		}
		value, err := extractString(dec.Args[pos], decl.File, line, fmt.Sprintf("Decorator '@%s' argument at position %d", dec.Name, pos))
		if err != nil {
			return "", err
		}
		return r.Transform.Apply(value), nil
	}

	obj := dec.Args[0]
	if obj.Kind != syntax.ExprObject {
		return "", newError(decl.File, line, "Decorator '@%s' first argument is not an object literal (%s): %s", dec.Name, kindName(obj), obj.Text)
	}

	prop := obj.Property(r.Name)
	if prop == nil {
		return "", newError(decl.File, line, "Decorator '@%s' has no property '%s'", dec.Name, r.Name)
	}
	switch prop.Kind {
	case syntax.PropertyShorthand:
		return "", newError(decl.File, line, "Decorator '@%s' property '%s' uses shorthand syntax", dec.Name, r.Name)
	case syntax.PropertyMethod:
		return "", newError(decl.File, line, "Decorator '@%s' property '%s' is a method", dec.Name, r.Name)
	}
	if prop.Value == nil {
		return "", newError(decl.File, line, "Decorator '@%s' property '%s' has no initializer", dec.Name, r.Name)
	}

	value, err := extractString(prop.Value, decl.File, line, fmt.Sprintf("Decorator '@%s' property '%s'", dec.Name, r.Name))
	if err != nil {
		return "", err
	}
	return r.Transform.Apply(value), nil
}

func evalDecoratorName(r *FromDecoratorName, decl *syntax.Declaration) (string, error) {
	dec, err := selectDecorator(decl, r.Decorators)
	if err != nil {
		return "", err
	}

	name := dec.Name
	if mapped, ok := r.Mapping[name]; ok {
		name = mapped
	}
	return r.Transform.Apply(name), nil
}

func evalGenericArg(r *FromGenericArg, decl *syntax.Declaration) ([]string, error) {
	start := owningClass(decl)
	visited := make(map[*syntax.Declaration]bool)

	var owner *syntax.Declaration
	var ref *syntax.TypeRef
	for cls := start; cls != nil && !visited[cls] && ref == nil; cls = cls.Base {
		visited[cls] = true
		for i := range cls.Implements {
			if cls.Implements[i].Name == r.Interface {
				owner, ref = cls, &cls.Implements[i]
				break
			}
		}
	}

	if ref == nil {
		return nil, newError(decl.File, decl.Line, "Class '%s' does not implement '%s'", start.DisplayName(), r.Interface)
	}
	if r.Position < 0 || r.Position >= len(ref.Args) {
		return nil, newError(decl.File, decl.Line, "Type argument position %d out of bounds for '%s' (has %d)", r.Position, ref.Text, len(ref.Args))
	}

	arg := ref.Args[r.Position]
	members := []syntax.TypeRef{arg}
	if arg.IsUnion() {
		members = arg.Union
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		id := m.Identity()
		if isTypeParameter(owner, id) {
			return nil, newError(decl.File, decl.Line, "Type argument '%s' of '%s' on class '%s' is a type parameter, expected concrete type", id, r.Interface, owner.DisplayName())
		}
		// Generic arguments keep their type arguments, e.g. Envelope<OrderPlaced>
		if len(m.Args) > 0 {
			id = m.Text
		}
		names = append(names, r.Transform.Apply(id))
	}
	return names, nil
}

func isTypeParameter(decl *syntax.Declaration, name string) bool {
	for _, tp := range decl.TypeParameters {
		if tp == name {
			return true
		}
	}
	return false
}

func evalMethodSignature(decl *syntax.Declaration) (MethodSignature, error) {
	if decl.Kind == syntax.KindClass {
		return MethodSignature{}, newError(decl.File, decl.Line, "fromMethodSignature requires a method or function, got class '%s'", decl.DisplayName())
	}

	returnType := decl.ReturnType
	if returnType == "" {
		returnType = unknownType
	}
	return MethodSignature{
		Parameters: toParameters(decl.Params),
		ReturnType: returnType,
	}, nil
}

func evalConstructorParams(decl *syntax.Declaration) []Parameter {
	ctor := owningClass(decl).Constructor
	if ctor == nil {
		return []Parameter{}
	}
	return toParameters(ctor.Params)
}

func evalParameterType(r *FromParameterType, decl *syntax.Declaration) (string, error) {
	params := decl.Params
	if decl.Kind == syntax.KindClass {
		params = nil
		if decl.Constructor != nil {
			params = decl.Constructor.Params
		}
	}

	if r.Position < 0 || r.Position >= len(params) {
		return "", newError(decl.File, decl.Line, "Parameter position %d out of bounds: '%s' has %d parameters", r.Position, decl.DisplayName(), len(params))
	}

	typ := params[r.Position].Type
	if typ == "" {
		return unknownType, nil
	}
	return r.Transform.Apply(typ), nil
}

func toParameters(params []syntax.Param) []Parameter {
	out := make([]Parameter, 0, len(params))
	for _, p := range params {
		typ := p.Type
		if typ == "" {
			typ = unknownType
		}
		out = append(out, Parameter{Name: p.Name, Type: typ})
	}
	return out
}
