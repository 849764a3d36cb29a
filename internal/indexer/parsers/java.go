package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// javaParser parses Java files.
type javaParser struct {
	*treeSitterParser
}

// NewJavaParser creates a new Java parser.
func NewJavaParser() *javaParser {
	lang := sitter.NewLanguage(java.Language())
	return &javaParser{
		treeSitterParser: newTreeSitterParser(lang, "java"),
	}
}

// Parse builds the classes (including member classes) and methods of a Java
// source file. Annotations are reported as decorators; Java has no
// free-standing functions.
func (p *javaParser) Parse(ctx context.Context, path string, source []byte) (*syntax.File, error) {
	return p.parse(ctx, path, source, func(root *sitter.Node) *syntax.File {
		b := &javaBuilder{
			source: source,
			path:   path,
			file:   &syntax.File{Imports: map[string]string{}},
		}
		b.program(root)
		return b.file
	})
}

type javaBuilder struct {
	source []byte
	path   string
	file   *syntax.File
}

func (b *javaBuilder) text(n *sitter.Node) string {
	return extractNodeText(n, b.source)
}

func (b *javaBuilder) program(root *sitter.Node) {
	for _, n := range findChildrenByType(root, "import_declaration") {
		b.importDeclaration(n)
	}

	var doc *sitter.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		switch n.Kind() {
		case "block_comment":
			doc = n
			continue
		case "line_comment":
			continue
		case "class_declaration":
			b.class(n, doc)
		}
		doc = nil
	}
}

// importDeclaration maps the simple name of a single-type import to its
// package. Static and on-demand imports are skipped.
func (b *javaBuilder) importDeclaration(n *sitter.Node) {
	if findChildByType(n, "asterisk") != nil || findChildByType(n, "static") != nil {
		return
	}
	for _, child := range namedChildren(n) {
		if child.Kind() != "scoped_identifier" && child.Kind() != "identifier" {
			continue
		}
		name := b.text(child)
		if i := strings.LastIndex(name, "."); i > 0 {
			b.file.Imports[name[i+1:]] = name[:i]
		}
		return
	}
}

func (b *javaBuilder) class(n, doc *sitter.Node) {
	decl := &syntax.Declaration{
		Kind:           syntax.KindClass,
		Name:           b.text(n.ChildByFieldName("name")),
		File:           b.path,
		Line:           declarationLine(n),
		Decorators:     b.annotations(findChildByType(n, "modifiers")),
		DocTags:        b.docTags(doc),
		TypeParameters: b.typeParameters(n.ChildByFieldName("type_parameters")),
	}

	if superclass := n.ChildByFieldName("superclass"); superclass != nil {
		if types := namedChildren(superclass); len(types) > 0 {
			decl.BaseName = stripTypeArgs(b.text(types[0]))
		}
	}
	if interfaces := n.ChildByFieldName("interfaces"); interfaces != nil {
		for _, t := range namedChildren(findChildByType(interfaces, "type_list")) {
			decl.Implements = append(decl.Implements, b.typeRef(t))
		}
	}

	b.file.Classes = append(b.file.Classes, decl)
	b.classBody(n.ChildByFieldName("body"), decl)
}

func (b *javaBuilder) classBody(body *sitter.Node, class *syntax.Declaration) {
	if body == nil {
		return
	}

	var doc *sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		switch m.Kind() {
		case "block_comment":
			doc = m
			continue
		case "line_comment":
			continue
		case "method_declaration":
			b.file.Methods = append(b.file.Methods, b.method(m, class, doc))
		case "constructor_declaration":
			if class.Constructor == nil {
				class.Constructor = b.method(m, class, doc)
			}
		case "field_declaration":
			class.Properties = append(class.Properties, b.fields(m)...)
		case "class_declaration":
			b.class(m, doc)
		}
		doc = nil
	}
}

func (b *javaBuilder) method(m *sitter.Node, class *syntax.Declaration, doc *sitter.Node) *syntax.Declaration {
	decl := &syntax.Declaration{
		Kind:           syntax.KindMethod,
		Name:           b.text(m.ChildByFieldName("name")),
		File:           b.path,
		Line:           declarationLine(m),
		Decorators:     b.annotations(findChildByType(m, "modifiers")),
		DocTags:        b.docTags(doc),
		Params:         b.params(m.ChildByFieldName("parameters")),
		TypeParameters: b.typeParameters(m.ChildByFieldName("type_parameters")),
		Parent:         class,
	}
	if t := m.ChildByFieldName("type"); t != nil {
		decl.ReturnType = b.text(t)
	}
	return decl
}

func (b *javaBuilder) fields(m *sitter.Node) []syntax.Property {
	static := hasModifier(findChildByType(m, "modifiers"), "static")

	var props []syntax.Property
	for _, v := range findChildrenByType(m, "variable_declarator") {
		prop := syntax.Property{
			Name:   b.text(v.ChildByFieldName("name")),
			Static: static,
			Line:   declarationLine(m),
		}
		if value := v.ChildByFieldName("value"); value != nil {
			prop.Initializer = b.expr(value)
		}
		props = append(props, prop)
	}
	return props
}

func hasModifier(mods *sitter.Node, modifier string) bool {
	return findChildByType(mods, modifier) != nil
}

func (b *javaBuilder) params(n *sitter.Node) []syntax.Param {
	var params []syntax.Param
	for _, p := range namedChildren(n) {
		switch p.Kind() {
		case "formal_parameter":
			params = append(params, syntax.Param{
				Name: b.text(p.ChildByFieldName("name")),
				Type: b.text(p.ChildByFieldName("type")),
			})
		case "spread_parameter":
			param := syntax.Param{}
			for _, child := range namedChildren(p) {
				switch child.Kind() {
				case "modifiers", "annotation", "marker_annotation":
				case "variable_declarator":
					param.Name = b.text(child.ChildByFieldName("name"))
				default:
					if param.Type == "" {
						param.Type = b.text(child) + "..."
					}
				}
			}
			params = append(params, param)
		}
	}
	return params
}

func (b *javaBuilder) typeParameters(n *sitter.Node) []string {
	var names []string
	for _, p := range findChildrenByType(n, "type_parameter") {
		if id := findChildByType(p, "type_identifier"); id != nil {
			names = append(names, b.text(id))
		}
	}
	return names
}

func (b *javaBuilder) typeRef(n *sitter.Node) syntax.TypeRef {
	ref := syntax.TypeRef{Text: b.text(n)}
	switch n.Kind() {
	case "type_identifier", "scoped_type_identifier":
		ref.Name = ref.Text
	case "generic_type":
		for _, child := range namedChildren(n) {
			switch child.Kind() {
			case "type_identifier", "scoped_type_identifier":
				ref.Name = b.text(child)
			case "type_arguments":
				for _, arg := range namedChildren(child) {
					ref.Args = append(ref.Args, b.typeRef(arg))
				}
			}
		}
	}
	return ref
}

func (b *javaBuilder) annotations(mods *sitter.Node) []syntax.Decorator {
	var out []syntax.Decorator
	for _, a := range namedChildren(mods) {
		if a.Kind() != "annotation" && a.Kind() != "marker_annotation" {
			continue
		}

		full := b.text(a.ChildByFieldName("name"))
		d := syntax.Decorator{
			Name:     splitQualified(full),
			FullName: full,
			Source:   b.file.Imports[firstSegment(full)],
			Line:     nodeLine(a),
		}
		if i := strings.LastIndex(full, "."); i > 0 {
			d.Source = full[:i]
		}
		d.Args = b.annotationArgs(a.ChildByFieldName("arguments"))
		out = append(out, d)
	}
	return out
}

// annotationArgs returns a single positional value as one argument, and
// key = value pairs as one object literal argument.
func (b *javaBuilder) annotationArgs(n *sitter.Node) []*syntax.Expr {
	values := namedChildren(n)
	if len(values) == 0 {
		return nil
	}
	if values[0].Kind() != "element_value_pair" {
		args := make([]*syntax.Expr, 0, len(values))
		for _, v := range values {
			args = append(args, b.expr(v))
		}
		return args
	}

	obj := otherExpr(n, b.source)
	obj.Kind = syntax.ExprObject
	for _, pair := range values {
		prop := syntax.ObjectProperty{
			Name: b.text(pair.ChildByFieldName("key")),
			Kind: syntax.PropertyAssignment,
		}
		if value := pair.ChildByFieldName("value"); value != nil {
			prop.Value = b.expr(value)
		}
		obj.Properties = append(obj.Properties, prop)
	}
	return []*syntax.Expr{obj}
}

func (b *javaBuilder) expr(n *sitter.Node) *syntax.Expr {
	e := otherExpr(n, b.source)
	switch n.Kind() {
	case "string_literal":
		e.Kind = syntax.ExprString
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal":
		e.Kind = syntax.ExprNumber
	case "true":
		e.Kind = syntax.ExprTrue
	case "false":
		e.Kind = syntax.ExprFalse
	}
	return e
}

func (b *javaBuilder) docTags(doc *sitter.Node) []string {
	if doc == nil {
		return nil
	}
	return docTags(b.text(doc))
}
