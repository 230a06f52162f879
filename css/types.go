package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is a single property declaration. Immutable once normalized.
type Declaration struct {
	Property  string // lower-cased property name
	Value     string // value text with collapsed whitespace, without !important
	Important bool
}

// Rule is a selector (or an at-rule prelude like "@media (min-width:400px)")
// with its declarations and nested rules, both in source order.
type Rule struct {
	Selector     string
	Declarations []Declaration
	Rules        []Rule
}

// IsAtRule reports whether the rule's selector is an at-rule prelude.
func (r *Rule) IsAtRule() bool {
	return strings.HasPrefix(r.Selector, "@")
}

// AtRuleName returns the at-rule keyword ("@media", "@supports") or "".
func (r *Rule) AtRuleName() string {
	if !r.IsAtRule() {
		return ""
	}
	if name, _, found := strings.Cut(r.Selector, " "); found {
		return name
	}
	return r.Selector
}

// Empty reports whether the rule carries no declarations and no non-empty
// nested rules.
func (r *Rule) Empty() bool {
	if len(r.Declarations) > 0 {
		return false
	}
	for i := range r.Rules {
		if !r.Rules[i].Empty() {
			return false
		}
	}
	return true
}

// Item is a single top-level item of a fragment. Exactly one of Declaration
// or Rule is non-nil. Author fragments may carry bare declarations with no
// selector at all, so those are first-class here, and their position among
// rules is part of author intent for non-atomic CSS.
type Item struct {
	Declaration *Declaration
	Rule        *Rule
}

// Stylesheet is a parsed CSS fragment: top-level items in source order.
type Stylesheet struct {
	Items []Item
}

// AppendDeclaration adds a bare declaration at the end of the fragment.
func (s *Stylesheet) AppendDeclaration(d Declaration) {
	s.Items = append(s.Items, Item{Declaration: &d})
}

// AppendRule adds a rule at the end of the fragment.
func (s *Stylesheet) AppendRule(r Rule) {
	s.Items = append(s.Items, Item{Rule: &r})
}

// Declarations returns all top-level bare declarations in source order.
func (s *Stylesheet) Declarations() []Declaration {
	var decls []Declaration
	for _, it := range s.Items {
		if it.Declaration != nil {
			decls = append(decls, *it.Declaration)
		}
	}
	return decls
}

// Rules returns all top-level rules in source order.
func (s *Stylesheet) Rules() []Rule {
	var rules []Rule
	for _, it := range s.Items {
		if it.Rule != nil {
			rules = append(rules, *it.Rule)
		}
	}
	return rules
}

func (d Declaration) appendTo(sb *strings.Builder) {
	sb.WriteString(d.Property)
	sb.WriteByte(':')
	sb.WriteString(d.Value)
	if d.Important {
		sb.WriteString("!important")
	}
}

func (r *Rule) appendTo(sb *strings.Builder) {
	sb.WriteString(r.Selector)
	sb.WriteByte('{')
	for i := range r.Declarations {
		if i > 0 {
			sb.WriteByte(';')
		}
		r.Declarations[i].appendTo(sb)
	}
	for i := range r.Rules {
		if len(r.Declarations) > 0 && i == 0 {
			sb.WriteByte(';')
		}
		r.Rules[i].appendTo(sb)
	}
	sb.WriteByte('}')
}

// String returns the minified single-line form of the rule, for example
// "._a1b2c3d4:hover{color:red}". Declarations and nested rules keep their
// stored order so output is deterministic.
func (r *Rule) String() string {
	var sb strings.Builder
	r.appendTo(&sb)
	return sb.String()
}

// String serializes the whole stylesheet in minified form, items in source
// order.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	pendingSep := false
	for _, it := range s.Items {
		if it.Declaration != nil {
			if pendingSep {
				sb.WriteByte(';')
			}
			it.Declaration.appendTo(&sb)
			pendingSep = true
			continue
		}
		it.Rule.appendTo(&sb)
		pendingSep = false
	}
	return sb.String()
}

// Legacy single-colon pseudo-elements, kept distinct from pseudo-classes
// during selector classification.
var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
	"placeholder":  true,
	"selection":    true,
	"marker":       true,
	"backdrop":     true,
}

// FirstPseudoClass returns the lower-cased name of the first pseudo-class in
// the selector ("hover", "focus-within", "not", ...) or "" when the selector
// has none. Pseudo-elements are not pseudo-classes and are skipped. The
// selector is re-lexed, so the result does not depend on class-name token
// length or any other textual offset.
func FirstPseudoClass(selector string) string {
	l := css.NewLexer(parse.NewInput(strings.NewReader(selector)))
	pendingColon := false
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return ""
		case css.ColonToken:
			if pendingColon {
				// "::" - a pseudo-element name follows, skip it
				pendingColon = false
				if next, _ := l.Next(); next != css.IdentToken && next != css.FunctionToken {
					return ""
				}
				continue
			}
			pendingColon = true
		case css.IdentToken:
			if pendingColon {
				name := strings.ToLower(string(data))
				if legacyPseudoElements[name] {
					pendingColon = false
					continue
				}
				return name
			}
		case css.FunctionToken:
			if pendingColon {
				return strings.ToLower(strings.TrimSuffix(string(data), "("))
			}
		default:
			pendingColon = false
		}
	}
}

// HasPseudoElement reports whether the selector targets a pseudo-element
// (either "::name" or a legacy single-colon form).
func HasPseudoElement(selector string) bool {
	l := css.NewLexer(parse.NewInput(strings.NewReader(selector)))
	colons := 0
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			return false
		case css.ColonToken:
			colons++
			if colons == 2 {
				return true
			}
		case css.IdentToken:
			if colons == 1 && legacyPseudoElements[strings.ToLower(string(data))] {
				return true
			}
			colons = 0
		default:
			colons = 0
		}
	}
}
