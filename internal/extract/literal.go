package extract

import (
	"strconv"
	"strings"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// LiteralKind tags the type of an extracted literal.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBoolean LiteralKind = "boolean"
)

// LiteralResult is a typed literal value. Only the field matching Kind is set.
type LiteralResult struct {
	Kind   LiteralKind
	String string
	Number float64
	Bool   bool
}

// Value returns the literal as a plain Go value.
func (r LiteralResult) Value() any {
	switch r.Kind {
	case LiteralNumber:
		return r.Number
	case LiteralBoolean:
		return r.Bool
	}
	return r.String
}

// IsLiteral reports whether expr is a string, numeric, or boolean literal.
// Enum member access, template strings, calls, identifiers and computed
// expressions are not literals.
func IsLiteral(expr *syntax.Expr) bool {
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case syntax.ExprString, syntax.ExprNumber, syntax.ExprTrue, syntax.ExprFalse:
		return true
	}
	return false
}

// ExtractLiteral returns the typed value of a literal expression. A nil
// expression or a non-literal fails with an ExtractionError tagged with
// file and line.
func ExtractLiteral(expr *syntax.Expr, file string, line int) (LiteralResult, error) {
	if expr == nil {
		return LiteralResult{}, newError(file, line, "No initializer found")
	}
	if !IsLiteral(expr) {
		return LiteralResult{}, newError(file, line, "Non-literal value detected (%s): %s", kindName(expr), expr.Text)
	}

	switch expr.Kind {
	case syntax.ExprString:
		return LiteralResult{Kind: LiteralString, String: unquote(expr.Text)}, nil
	case syntax.ExprNumber:
		n, err := parseNumber(expr.Text)
		if err != nil {
			return LiteralResult{}, newError(file, line, "Invalid numeric literal: %s", expr.Text)
		}
		return LiteralResult{Kind: LiteralNumber, Number: n}, nil
	case syntax.ExprTrue:
		return LiteralResult{Kind: LiteralBoolean, Bool: true}, nil
	default:
		return LiteralResult{Kind: LiteralBoolean, Bool: false}, nil
	}
}

// extractString extracts a string literal, rejecting numbers and booleans.
func extractString(expr *syntax.Expr, file string, line int, what string) (string, error) {
	if expr == nil {
		return "", newError(file, line, "%s has no value", what)
	}
	if expr.Kind != syntax.ExprString {
		return "", newError(file, line, "%s is not a string literal (%s): %s", what, kindName(expr), expr.Text)
	}
	return unquote(expr.Text), nil
}

func kindName(expr *syntax.Expr) string {
	if expr.KindName != "" {
		return expr.KindName
	}
	return expr.Kind.String()
}

// unquote strips the surrounding quote characters of a string literal,
// including triple-quoted text blocks.
func unquote(text string) string {
	if strings.HasPrefix(text, `"""`) && strings.HasSuffix(text, `"""`) && len(text) >= 6 {
		return text[3 : len(text)-3]
	}
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '"' || first == '\'' || first == '`') && last == first {
			return text[1 : len(text)-1]
		}
	}
	return text
}

func parseNumber(text string) (float64, error) {
	s := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(s)

	// Hex floating point, e.g. 0x1.8p1 or 0x1p-2f
	if strings.HasPrefix(lower, "0x") && strings.ContainsRune(lower, 'p') {
		return strconv.ParseFloat(strings.TrimRight(s, "fFdD"), 64)
	}

	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		s = strings.TrimRight(s, "lLnN")
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}

	s = strings.TrimRight(s, "lLfFdDnN")

	// Legacy octal: a leading zero followed only by digits, e.g. 017
	if len(s) > 1 && s[0] == '0' && strings.Trim(s, "0123456789") == "" {
		n, err := strconv.ParseInt(s[1:], 8, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}

	return strconv.ParseFloat(s, 64)
}
