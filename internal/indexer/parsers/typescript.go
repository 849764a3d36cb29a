package parsers

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// typeScriptParser parses TypeScript and JavaScript files.
type typeScriptParser struct {
	*treeSitterParser
}

// NewTypeScriptParser creates a parser for .ts files.
func NewTypeScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "typescript"),
	}
}

// NewTSXParser creates a parser for .tsx files.
func NewTSXParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "typescript"),
	}
}

// NewJavaScriptParser creates a parser for .js and .jsx files. The TSX
// grammar is a superset of JavaScript with JSX.
func NewJavaScriptParser() *typeScriptParser {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptParser{
		treeSitterParser: newTreeSitterParser(lang, "javascript"),
	}
}

// Parse builds the top-level classes, their methods, and top-level functions
// of a TypeScript or JavaScript source file.
func (p *typeScriptParser) Parse(ctx context.Context, path string, source []byte) (*syntax.File, error) {
	return p.parse(ctx, path, source, func(root *sitter.Node) *syntax.File {
		b := &tsBuilder{
			source: source,
			path:   path,
			file:   &syntax.File{Imports: map[string]string{}},
		}
		b.program(root)
		return b.file
	})
}

type tsBuilder struct {
	source []byte
	path   string
	file   *syntax.File
}

func (b *tsBuilder) text(n *sitter.Node) string {
	return extractNodeText(n, b.source)
}

func (b *tsBuilder) program(root *sitter.Node) {
	// Imports first: decorators resolve their source against them.
	for _, n := range findChildrenByType(root, "import_statement") {
		b.importStatement(n)
	}

	var doc *sitter.Node
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if n.Kind() == "comment" {
			doc = n
			continue
		}
		b.statement(n, doc)
		doc = nil
	}
}

func (b *tsBuilder) statement(n, doc *sitter.Node) {
	switch n.Kind() {
	case "class_declaration", "abstract_class_declaration":
		b.class(n, n, nil, doc)
	case "function_declaration", "generator_function_declaration":
		b.function(n, n, doc)
	case "export_statement":
		b.exportStatement(n, doc)
	}
}

func (b *tsBuilder) exportStatement(n, doc *sitter.Node) {
	decorators := findChildrenByType(n, "decorator")

	if decl := n.ChildByFieldName("declaration"); decl != nil {
		switch decl.Kind() {
		case "class_declaration", "abstract_class_declaration":
			b.class(decl, n, decorators, doc)
		case "function_declaration", "generator_function_declaration":
			b.function(decl, n, doc)
		}
		return
	}

	// export default class {} / export default function () {}
	if value := n.ChildByFieldName("value"); value != nil {
		switch value.Kind() {
		case "class":
			b.class(value, n, decorators, doc)
		case "function_expression", "function", "generator_function":
			b.function(value, n, doc)
		}
	}
}

func (b *tsBuilder) importStatement(n *sitter.Node) {
	source := trimQuotes(b.text(n.ChildByFieldName("source")))
	if source == "" {
		return
	}

	for _, child := range namedChildren(findChildByType(n, "import_clause")) {
		switch child.Kind() {
		case "identifier":
			b.file.Imports[b.text(child)] = source
		case "namespace_import":
			if id := findChildByType(child, "identifier"); id != nil {
				b.file.Imports[b.text(id)] = source
			}
		case "named_imports":
			for _, spec := range findChildrenByType(child, "import_specifier") {
				local := spec.ChildByFieldName("alias")
				if local == nil {
					local = spec.ChildByFieldName("name")
				}
				b.file.Imports[trimQuotes(b.text(local))] = source
			}
		}
	}
}

// class records a class declaration. outer is the node whose start gives the
// declaration line; it differs from n for exported classes.
func (b *tsBuilder) class(n, outer *sitter.Node, decorators []*sitter.Node, doc *sitter.Node) {
	decl := &syntax.Declaration{
		Kind:           syntax.KindClass,
		Name:           b.text(n.ChildByFieldName("name")),
		File:           b.path,
		Line:           declarationLine(outer),
		Decorators:     b.decorators(append(decorators, findChildrenByType(n, "decorator")...)),
		DocTags:        b.docTags(doc),
		TypeParameters: b.typeParameters(n.ChildByFieldName("type_parameters")),
	}

	if heritage := findChildByType(n, "class_heritage"); heritage != nil {
		if extends := findChildByType(heritage, "extends_clause"); extends != nil {
			decl.BaseName = strings.Join(strings.Fields(b.text(extends.ChildByFieldName("value"))), "")
		}
		if implements := findChildByType(heritage, "implements_clause"); implements != nil {
			for _, t := range namedChildren(implements) {
				decl.Implements = append(decl.Implements, b.typeRef(t))
			}
		}
	}

	b.file.Classes = append(b.file.Classes, decl)
	b.classBody(n.ChildByFieldName("body"), decl)
}

func (b *tsBuilder) classBody(body *sitter.Node, class *syntax.Declaration) {
	if body == nil {
		return
	}

	var pending []*sitter.Node
	var doc *sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		m := body.NamedChild(i)
		switch m.Kind() {
		case "comment":
			doc = m
			continue
		case "decorator":
			pending = append(pending, m)
			continue
		case "method_definition", "abstract_method_signature":
			b.method(m, class, append(pending, findChildrenByType(m, "decorator")...), doc)
		case "public_field_definition":
			class.Properties = append(class.Properties, b.property(m))
		}
		pending, doc = nil, nil
	}
}

func (b *tsBuilder) method(m *sitter.Node, class *syntax.Declaration, decorators []*sitter.Node, doc *sitter.Node) {
	decl := &syntax.Declaration{
		Kind:           syntax.KindMethod,
		Name:           b.text(m.ChildByFieldName("name")),
		File:           b.path,
		Line:           declarationLine(m),
		Decorators:     b.decorators(decorators),
		DocTags:        b.docTags(doc),
		Params:         b.params(m.ChildByFieldName("parameters")),
		ReturnType:     b.typeAnnotation(m.ChildByFieldName("return_type")),
		TypeParameters: b.typeParameters(m.ChildByFieldName("type_parameters")),
		Parent:         class,
	}

	if decl.Name == "constructor" && m.Kind() == "method_definition" {
		if class.Constructor == nil {
			class.Constructor = decl
		}
		return
	}
	b.file.Methods = append(b.file.Methods, decl)
}

func (b *tsBuilder) property(m *sitter.Node) syntax.Property {
	prop := syntax.Property{
		Name: trimQuotes(b.text(m.ChildByFieldName("name"))),
		Line: declarationLine(m),
	}
	for i := uint(0); i < m.ChildCount(); i++ {
		if m.Child(i).Kind() == "static" {
			prop.Static = true
		}
	}
	if value := m.ChildByFieldName("value"); value != nil {
		prop.Initializer = b.expr(value)
	}
	return prop
}

func (b *tsBuilder) function(n, outer, doc *sitter.Node) {
	b.file.Functions = append(b.file.Functions, &syntax.Declaration{
		Kind:           syntax.KindFunction,
		Name:           b.text(n.ChildByFieldName("name")),
		File:           b.path,
		Line:           declarationLine(outer),
		DocTags:        b.docTags(doc),
		Params:         b.params(n.ChildByFieldName("parameters")),
		ReturnType:     b.typeAnnotation(n.ChildByFieldName("return_type")),
		TypeParameters: b.typeParameters(n.ChildByFieldName("type_parameters")),
	})
}

func (b *tsBuilder) params(n *sitter.Node) []syntax.Param {
	var params []syntax.Param
	for _, p := range namedChildren(n) {
		switch p.Kind() {
		case "required_parameter", "optional_parameter":
			pattern := p.ChildByFieldName("pattern")
			name := b.text(pattern)
			if pattern != nil && pattern.Kind() == "rest_pattern" {
				name = strings.TrimPrefix(name, "...")
			}
			params = append(params, syntax.Param{
				Name: name,
				Type: b.typeAnnotation(p.ChildByFieldName("type")),
			})
		case "identifier":
			params = append(params, syntax.Param{Name: b.text(p)})
		}
	}
	return params
}

// typeAnnotation returns the annotated type without the leading colon.
func (b *tsBuilder) typeAnnotation(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(b.text(n), ":"))
}

func (b *tsBuilder) typeParameters(n *sitter.Node) []string {
	var names []string
	for _, p := range findChildrenByType(n, "type_parameter") {
		names = append(names, b.text(p.ChildByFieldName("name")))
	}
	return names
}

func (b *tsBuilder) typeRef(n *sitter.Node) syntax.TypeRef {
	ref := syntax.TypeRef{Text: b.text(n)}
	switch n.Kind() {
	case "type_identifier", "identifier", "nested_type_identifier", "member_expression", "predefined_type":
		ref.Name = ref.Text
	case "generic_type":
		ref.Name = b.text(n.ChildByFieldName("name"))
		for _, arg := range namedChildren(n.ChildByFieldName("type_arguments")) {
			ref.Args = append(ref.Args, b.typeRef(arg))
		}
	case "union_type":
		ref.Union = b.unionMembers(n)
	case "parenthesized_type":
		if inner := namedChildren(n); len(inner) == 1 {
			return b.typeRef(inner[0])
		}
	}
	return ref
}

// unionMembers flattens the left-nested union_type nodes of A | B | C.
func (b *tsBuilder) unionMembers(n *sitter.Node) []syntax.TypeRef {
	var members []syntax.TypeRef
	for _, child := range namedChildren(n) {
		if child.Kind() == "union_type" {
			members = append(members, b.unionMembers(child)...)
			continue
		}
		members = append(members, b.typeRef(child))
	}
	return members
}

func (b *tsBuilder) decorators(nodes []*sitter.Node) []syntax.Decorator {
	var out []syntax.Decorator
	seen := make(map[uint]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.StartByte()] {
			continue
		}
		seen[n.StartByte()] = true
		if d, ok := b.decorator(n); ok {
			out = append(out, d)
		}
	}
	return out
}

func (b *tsBuilder) decorator(n *sitter.Node) (syntax.Decorator, bool) {
	children := namedChildren(n)
	if len(children) == 0 {
		return syntax.Decorator{}, false
	}

	target := children[0]
	var args *sitter.Node
	if target.Kind() == "call_expression" {
		args = target.ChildByFieldName("arguments")
		target = target.ChildByFieldName("function")
	}

	full := strings.Join(strings.Fields(b.text(target)), "")
	d := syntax.Decorator{
		Name:     splitQualified(full),
		FullName: full,
		Source:   b.file.Imports[firstSegment(full)],
		Line:     nodeLine(n),
	}
	for _, arg := range namedChildren(args) {
		d.Args = append(d.Args, b.expr(arg))
	}
	return d, true
}

func (b *tsBuilder) expr(n *sitter.Node) *syntax.Expr {
	e := otherExpr(n, b.source)
	switch n.Kind() {
	case "string":
		e.Kind = syntax.ExprString
	case "number":
		e.Kind = syntax.ExprNumber
	case "true":
		e.Kind = syntax.ExprTrue
	case "false":
		e.Kind = syntax.ExprFalse
	case "object":
		e.Kind = syntax.ExprObject
		e.Properties = b.objectProperties(n)
	}
	return e
}

func (b *tsBuilder) objectProperties(n *sitter.Node) []syntax.ObjectProperty {
	var props []syntax.ObjectProperty
	for _, child := range namedChildren(n) {
		switch child.Kind() {
		case "pair":
			prop := syntax.ObjectProperty{
				Name: trimQuotes(b.text(child.ChildByFieldName("key"))),
				Kind: syntax.PropertyAssignment,
			}
			if value := child.ChildByFieldName("value"); value != nil {
				prop.Value = b.expr(value)
			}
			props = append(props, prop)
		case "shorthand_property_identifier":
			props = append(props, syntax.ObjectProperty{Name: b.text(child), Kind: syntax.PropertyShorthand})
		case "method_definition":
			props = append(props, syntax.ObjectProperty{Name: b.text(child.ChildByFieldName("name")), Kind: syntax.PropertyMethod})
		case "spread_element":
			props = append(props, syntax.ObjectProperty{Name: b.text(child), Kind: syntax.PropertySpread})
		}
	}
	return props
}

func (b *tsBuilder) docTags(doc *sitter.Node) []string {
	if doc == nil {
		return nil
	}
	return docTags(b.text(doc))
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
