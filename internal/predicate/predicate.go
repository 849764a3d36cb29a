// Package predicate matches declarations against configured conditions.
package predicate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mvp-joe/archextract/internal/syntax"
)

// Predicate is a condition over a declaration. Exactly one field is set; an
// empty predicate matches nothing.
type Predicate struct {
	HasDecorator        *HasDecorator `mapstructure:"hasDecorator" json:"hasDecorator,omitempty"`
	HasJSDoc            *HasJSDoc     `mapstructure:"hasJSDoc" json:"hasJSDoc,omitempty"`
	ExtendsClass        *NameRef      `mapstructure:"extendsClass" json:"extendsClass,omitempty"`
	ImplementsInterface *NameRef      `mapstructure:"implementsInterface" json:"implementsInterface,omitempty"`
	NameEndsWith        *NameEndsWith `mapstructure:"nameEndsWith" json:"nameEndsWith,omitempty"`
	NameMatches         *NameMatches  `mapstructure:"nameMatches" json:"nameMatches,omitempty"`
	InClassWith         *Predicate    `mapstructure:"inClassWith" json:"inClassWith,omitempty"`
	And                 []Predicate   `mapstructure:"and" json:"and,omitempty"`
	Or                  []Predicate   `mapstructure:"or" json:"or,omitempty"`
	Not                 *Predicate    `mapstructure:"not" json:"not,omitempty"`
}

// HasDecorator matches a decorator by name. From restricts the match to
// decorators imported from the given module.
type HasDecorator struct {
	Name []string `mapstructure:"name" json:"name"`
	From string   `mapstructure:"from" json:"from,omitempty"`
}

// HasJSDoc matches a doc-comment tag; the leading "@" is optional.
type HasJSDoc struct {
	Tag string `mapstructure:"tag" json:"tag"`
}

// NameRef names a class or interface.
type NameRef struct {
	Name string `mapstructure:"name" json:"name"`
}

type NameEndsWith struct {
	Suffix string `mapstructure:"suffix" json:"suffix"`
}

type NameMatches struct {
	Pattern string `mapstructure:"pattern" json:"pattern"`
}

// Evaluate reports whether decl satisfies p. It never fails: malformed
// conditions simply do not match.
func Evaluate(decl *syntax.Declaration, p *Predicate) bool {
	if decl == nil || p == nil {
		return false
	}

	switch {
	case p.HasDecorator != nil:
		return hasDecorator(decl, p.HasDecorator)
	case p.HasJSDoc != nil:
		tag := strings.TrimPrefix(p.HasJSDoc.Tag, "@")
		for _, t := range decl.DocTags {
			if t == tag {
				return true
			}
		}
		return false
	case p.ExtendsClass != nil:
		return decl.BaseName != "" && decl.BaseName == p.ExtendsClass.Name
	case p.ImplementsInterface != nil:
		for _, ref := range decl.Implements {
			if ref.Name == p.ImplementsInterface.Name {
				return true
			}
		}
		return false
	case p.NameEndsWith != nil:
		return decl.Name != "" && strings.HasSuffix(decl.Name, p.NameEndsWith.Suffix)
	case p.NameMatches != nil:
		re, err := compile(p.NameMatches.Pattern)
		if err != nil {
			return false
		}
		return decl.Name != "" && re.MatchString(decl.Name)
	case p.InClassWith != nil:
		return decl.Kind == syntax.KindMethod && Evaluate(decl.Parent, p.InClassWith)
	case p.And != nil:
		if len(p.And) == 0 {
			return false
		}
		for i := range p.And {
			if !Evaluate(decl, &p.And[i]) {
				return false
			}
		}
		return true
	case p.Or != nil:
		for i := range p.Or {
			if Evaluate(decl, &p.Or[i]) {
				return true
			}
		}
		return false
	case p.Not != nil:
		return !Evaluate(decl, p.Not)
	}
	return false
}

func hasDecorator(decl *syntax.Declaration, hd *HasDecorator) bool {
	for _, d := range decl.Decorators {
		if hd.From != "" && d.Source != hd.From {
			continue
		}
		for _, name := range hd.Name {
			if d.Name == name || d.FullName == name {
				return true
			}
		}
	}
	return false
}

// Validate reports structural problems: predicates with zero or several
// conditions, empty names, and patterns that do not compile.
func Validate(p *Predicate) error {
	var errs []error
	validate(p, "where", &errs)
	return errors.Join(errs...)
}

func validate(p *Predicate, path string, errs *[]error) {
	if p == nil {
		*errs = append(*errs, fmt.Errorf("%s: predicate is empty", path))
		return
	}

	set := p.conditions()
	switch len(set) {
	case 0:
		*errs = append(*errs, fmt.Errorf("%s: predicate is empty", path))
		return
	case 1:
	default:
		*errs = append(*errs, fmt.Errorf("%s: predicate sets several conditions (%s)", path, strings.Join(set, ", ")))
		return
	}

	switch {
	case p.HasDecorator != nil:
		if len(p.HasDecorator.Name) == 0 {
			*errs = append(*errs, fmt.Errorf("%s.hasDecorator: name is required", path))
		}
	case p.HasJSDoc != nil:
		if strings.TrimPrefix(p.HasJSDoc.Tag, "@") == "" {
			*errs = append(*errs, fmt.Errorf("%s.hasJSDoc: tag is required", path))
		}
	case p.ExtendsClass != nil:
		if p.ExtendsClass.Name == "" {
			*errs = append(*errs, fmt.Errorf("%s.extendsClass: name is required", path))
		}
	case p.ImplementsInterface != nil:
		if p.ImplementsInterface.Name == "" {
			*errs = append(*errs, fmt.Errorf("%s.implementsInterface: name is required", path))
		}
	case p.NameEndsWith != nil:
		if p.NameEndsWith.Suffix == "" {
			*errs = append(*errs, fmt.Errorf("%s.nameEndsWith: suffix is required", path))
		}
	case p.NameMatches != nil:
		if _, err := compile(p.NameMatches.Pattern); err != nil {
			*errs = append(*errs, fmt.Errorf("%s.nameMatches: invalid pattern %q: %w", path, p.NameMatches.Pattern, err))
		}
	case p.InClassWith != nil:
		validate(p.InClassWith, path+".inClassWith", errs)
	case p.And != nil:
		if len(p.And) == 0 {
			*errs = append(*errs, fmt.Errorf("%s.and: at least one predicate is required", path))
		}
		for i := range p.And {
			validate(&p.And[i], fmt.Sprintf("%s.and[%d]", path, i), errs)
		}
	case p.Or != nil:
		if len(p.Or) == 0 {
			*errs = append(*errs, fmt.Errorf("%s.or: at least one predicate is required", path))
		}
		for i := range p.Or {
			validate(&p.Or[i], fmt.Sprintf("%s.or[%d]", path, i), errs)
		}
	case p.Not != nil:
		validate(p.Not, path+".not", errs)
	}
}

var patterns sync.Map // pattern -> *regexp.Regexp

func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}

func (p *Predicate) conditions() []string {
	var set []string
	if p.HasDecorator != nil {
		set = append(set, "hasDecorator")
	}
	if p.HasJSDoc != nil {
		set = append(set, "hasJSDoc")
	}
	if p.ExtendsClass != nil {
		set = append(set, "extendsClass")
	}
	if p.ImplementsInterface != nil {
		set = append(set, "implementsInterface")
	}
	if p.NameEndsWith != nil {
		set = append(set, "nameEndsWith")
	}
	if p.NameMatches != nil {
		set = append(set, "nameMatches")
	}
	if p.InClassWith != nil {
		set = append(set, "inClassWith")
	}
	if p.And != nil {
		set = append(set, "and")
	}
	if p.Or != nil {
		set = append(set, "or")
	}
	if p.Not != nil {
		set = append(set, "not")
	}
	return set
}
