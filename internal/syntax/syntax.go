// Package syntax defines the language-neutral declaration model consumed by
// the extraction engine. Parser adapters build it; the engine only reads it.
package syntax

// DeclarationKind identifies the shape of a declaration.
type DeclarationKind string

const (
	KindClass    DeclarationKind = "class"
	KindMethod   DeclarationKind = "method"
	KindFunction DeclarationKind = "function"
)

// File is a parsed source file.
type File struct {
	Path      string
	Language  string
	Classes   []*Declaration
	Methods   []*Declaration
	Functions []*Declaration

	// Imports maps a local binding name to the module it was imported from
	// (e.g. "Controller" -> "@nestjs/common").
	Imports map[string]string
}

// Declaration is a class-like, method-like, or function-like node.
type Declaration struct {
	Kind DeclarationKind
	Name string // empty for anonymous declarations
	File string
	Line int // 1-indexed, excludes leading decorators

	Decorators []Decorator
	DocTags    []string // doc-comment tag names without "@"

	Params         []Param
	ReturnType     string // empty when not annotated
	TypeParameters []string

	Properties  []Property
	Implements  []TypeRef
	BaseName    string       // text of the extends clause, without type arguments
	Base        *Declaration // resolved parent class, nil when unknown
	Parent      *Declaration // owning class of a method
	Constructor *Declaration // class constructor, nil when absent
}

// Decorator is an annotation attached to a declaration.
type Decorator struct {
	Name     string // last segment, e.g. "Get" for @http.Get()
	FullName string // e.g. "http.Get"
	Source   string // module the decorator was imported from, when known
	Args     []*Expr
	Line     int
}

// Param is a parameter of a method, function, or constructor.
type Param struct {
	Name string
	Type string // empty when not annotated
}

// Property is a static or instance field of a class.
type Property struct {
	Name        string
	Static      bool
	Initializer *Expr
	Line        int
}

// TypeRef is a reference to a type, as written in source.
type TypeRef struct {
	Name  string    // dotted reference name without type arguments
	Text  string    // full source text
	Args  []TypeRef // type arguments
	Union []TypeRef // members when the type is a union
}

// IsUnion reports whether the reference is a union type.
func (t TypeRef) IsUnion() bool {
	return len(t.Union) > 0
}

// Identity returns Name when set, else the source text.
func (t TypeRef) Identity() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Text
}

// DisplayName returns the declaration name, or "anonymous".
func (d *Declaration) DisplayName() string {
	if d.Name == "" {
		return "anonymous"
	}
	return d.Name
}

// Declarations returns the file's declarations of the given kind.
func (f *File) Declarations(kind DeclarationKind) []*Declaration {
	switch kind {
	case KindClass:
		return f.Classes
	case KindMethod:
		return f.Methods
	case KindFunction:
		return f.Functions
	}
	return nil
}
