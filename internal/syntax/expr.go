package syntax

import "strings"

// ExprKind classifies an expression for literal detection.
type ExprKind int

const (
	ExprOther ExprKind = iota
	ExprString
	ExprNumber
	ExprTrue
	ExprFalse
	ExprObject
)

func (k ExprKind) String() string {
	switch k {
	case ExprString:
		return "string"
	case ExprNumber:
		return "number"
	case ExprTrue:
		return "true"
	case ExprFalse:
		return "false"
	case ExprObject:
		return "object"
	}
	return "other"
}

// Expr is an expression node, typically an initializer or decorator argument.
type Expr struct {
	Kind     ExprKind
	KindName string // syntactic kind for diagnostics, e.g. "PropertyAccessExpression"
	Text     string
	Line     int

	// Properties holds the members of an object literal.
	Properties []ObjectProperty
}

// PropertyKind is the syntactic form of an object literal member.
type PropertyKind int

const (
	PropertyAssignment PropertyKind = iota // key: value
	PropertyShorthand                      // { key }
	PropertyMethod                         // key() {}
	PropertySpread                         // ...other
)

// ObjectProperty is a member of an object literal.
type ObjectProperty struct {
	Name  string
	Kind  PropertyKind
	Value *Expr // nil unless Kind is PropertyAssignment
}

// Property returns the object literal member with the given name, or nil.
func (e *Expr) Property(name string) *ObjectProperty {
	if e == nil {
		return nil
	}
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return &e.Properties[i]
		}
	}
	return nil
}

// KindNameFromNodeType converts a snake_case syntax node type such as
// "member_expression" into "MemberExpression".
func KindNameFromNodeType(nodeType string) string {
	var b strings.Builder
	for _, part := range strings.Split(nodeType, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
