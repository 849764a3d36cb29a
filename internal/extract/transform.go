package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Transform post-processes an extracted string. Steps run in field order and
// only when set.
type Transform struct {
	StripSuffix   string `mapstructure:"stripSuffix" json:"stripSuffix,omitempty"`
	StripPrefix   string `mapstructure:"stripPrefix" json:"stripPrefix,omitempty"`
	ToLowerCase   bool   `mapstructure:"toLowerCase" json:"toLowerCase,omitempty"`
	ToUpperCase   bool   `mapstructure:"toUpperCase" json:"toUpperCase,omitempty"`
	KebabToPascal bool   `mapstructure:"kebabToPascal" json:"kebabToPascal,omitempty"`
	PascalToKebab bool   `mapstructure:"pascalToKebab" json:"pascalToKebab,omitempty"`
}

var upperRe = regexp.MustCompile(`([A-Z])`)

// Apply threads value through the configured steps. A nil transform is the
// identity.
func (t *Transform) Apply(value string) string {
	if t == nil {
		return value
	}

	var steps []func(string) string
	if t.StripSuffix != "" {
		suffix := t.StripSuffix
		steps = append(steps, func(s string) string { return strings.TrimSuffix(s, suffix) })
	}
	if t.StripPrefix != "" {
		prefix := t.StripPrefix
		steps = append(steps, func(s string) string { return strings.TrimPrefix(s, prefix) })
	}
	if t.ToLowerCase {
		steps = append(steps, strings.ToLower)
	}
	if t.ToUpperCase {
		steps = append(steps, strings.ToUpper)
	}
	if t.KebabToPascal {
		steps = append(steps, KebabToPascal)
	}
	if t.PascalToKebab {
		steps = append(steps, PascalToKebab)
	}

	for _, step := range steps {
		value = step(value)
	}
	return value
}

// KebabToPascal converts "order-placed" to "OrderPlaced".
func KebabToPascal(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "-") {
		if part == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(part[size:])
	}
	return b.String()
}

// PascalToKebab converts "OrderPlaced" to "order-placed".
func PascalToKebab(s string) string {
	out := strings.ToLower(upperRe.ReplaceAllString(s, "-$1"))
	return strings.TrimPrefix(out, "-")
}
