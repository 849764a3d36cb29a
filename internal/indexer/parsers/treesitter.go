package parsers

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// treeSitterParser provides common tree-sitter parsing functionality.
type treeSitterParser struct {
	language *sitter.Language
	lang     string
}

// newTreeSitterParser creates a new tree-sitter parser for the given language.
func newTreeSitterParser(language *sitter.Language, lang string) *treeSitterParser {
	return &treeSitterParser{
		language: language,
		lang:     lang,
	}
}

// parse runs tree-sitter over source and hands the root node to build.
// The tree is closed once build returns, so build must not retain nodes.
func (p *treeSitterParser) parse(ctx context.Context, path string, source []byte, build func(root *sitter.Node) *syntax.File) (*syntax.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.ParseCtx(ctx, source, nil)
	if tree == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse %s file: %s", p.lang, path)
	}
	defer tree.Close()

	file := build(tree.RootNode())
	file.Path = path
	file.Language = p.lang
	return file, nil
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// nodeLine returns the 1-indexed start line of node.
func nodeLine(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	return int(node.StartPosition().Row) + 1
}

// declarationLine returns the line of the first child of node that is not an
// annotation or comment, descending into modifier lists.
func declarationLine(node *sitter.Node) int {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "decorator", "annotation", "marker_annotation", "comment", "block_comment", "line_comment":
			continue
		case "modifiers":
			if line := declarationLine(child); line > 0 {
				return line
			}
			continue
		}
		return nodeLine(child)
	}
	return 0
}

// findChildByType finds the first direct child of the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all direct children of the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var results []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var results []*sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if isComment(child) {
			continue
		}
		results = append(results, child)
	}
	return results
}

func isComment(node *sitter.Node) bool {
	switch node.Kind() {
	case "comment", "block_comment", "line_comment":
		return true
	}
	return false
}

// docTags returns the block tag names of a doc comment ("/** ... */"), in
// order and without "@". Inline tags such as {@link X} are ignored.
func docTags(comment string) []string {
	if !strings.HasPrefix(comment, "/**") {
		return nil
	}
	body := strings.TrimSuffix(strings.TrimPrefix(comment, "/**"), "*/")

	var tags []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "*")
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		tag := line[1:]
		if end := strings.IndexFunc(tag, func(r rune) bool {
			return !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
		}); end >= 0 {
			tag = tag[:end]
		}
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// splitQualified returns the last dotted segment of name.
func splitQualified(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// firstSegment returns the first dotted segment of name.
func firstSegment(name string) string {
	if i := strings.Index(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

// stripTypeArgs removes a trailing type argument list from a type name.
func stripTypeArgs(name string) string {
	if i := strings.Index(name, "<"); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

// otherExpr builds a non-literal expression for node.
func otherExpr(node *sitter.Node, source []byte) *syntax.Expr {
	return &syntax.Expr{
		Kind:     syntax.ExprOther,
		KindName: syntax.KindNameFromNodeType(node.Kind()),
		Text:     extractNodeText(node, source),
		Line:     nodeLine(node),
	}
}
