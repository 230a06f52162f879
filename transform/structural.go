package transform

import (
	"strings"

	"acss/css"
)

// resolveSelector composes a parent selector context with a nested selector
// using standard nesting resolution: "&" is replaced by the parent, a bare
// pseudo suffix attaches directly, anything else becomes a descendant.
func resolveSelector(parent, child string) string {
	if strings.Contains(child, "&") {
		return strings.TrimSpace(strings.ReplaceAll(child, "&", parent))
	}
	if strings.HasPrefix(child, ":") || strings.HasPrefix(child, "[") {
		return parent + child
	}
	return strings.TrimSpace(parent + " " + child)
}

// unwrapSheet lifts nested rules to the top level. After it runs, every
// top-level item is a bare declaration, a flat rule, or an at-rule whose
// children are flat rules. Relative source order is preserved: children
// follow their parent.
func unwrapSheet(s *css.Stylesheet) {
	var out []css.Item
	for _, it := range s.Items {
		if it.Declaration != nil {
			out = append(out, it)
			continue
		}
		out = append(out, unwrapRule(*it.Rule, "")...)
	}
	s.Items = out
}

func unwrapRule(r css.Rule, parent string) []css.Item {
	var out []css.Item

	if r.IsAtRule() {
		var (
			children []css.Rule
			hoisted  []css.Item
		)
		if len(r.Declarations) > 0 {
			children = append(children, css.Rule{Selector: parent, Declarations: r.Declarations})
		}
		for _, nr := range r.Rules {
			for _, it := range unwrapRule(nr, parent) {
				if it.Rule.IsAtRule() {
					// at-rule nested in at-rule: hoist, inner prelude wins
					hoisted = append(hoisted, it)
					continue
				}
				children = append(children, *it.Rule)
			}
		}
		if len(children) > 0 {
			out = append(out, css.Item{Rule: &css.Rule{Selector: r.Selector, Rules: children}})
		}
		return append(out, hoisted...)
	}

	sel := r.Selector
	if parent != "" || strings.Contains(sel, "&") {
		sel = resolveSelector(parent, sel)
	}
	if len(r.Declarations) > 0 {
		out = append(out, css.Item{Rule: &css.Rule{Selector: sel, Declarations: r.Declarations}})
	}
	for _, nr := range r.Rules {
		out = append(out, unwrapRule(nr, sel)...)
	}
	return out
}

// stripStrings blanks out the contents of quoted string literals so that
// brace scanning cannot be fooled by values like content:'}'.
func stripStrings(s string) string {
	var (
		out   = []byte(s)
		quote byte
	)
	for i := 0; i < len(out); i++ {
		c := out[i]
		if quote != 0 {
			if c == '\\' && i+1 < len(out) {
				out[i], out[i+1] = ' ', ' '
				i++
				continue
			}
			if c == quote {
				quote = 0
				continue
			}
			out[i] = ' '
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
		}
	}
	return string(out)
}

// danglingSelector detects a selector block left open by the tail of
// unconditional CSS: selector-like text preceding an unmatched '{' in the
// text following the last complete '}'. It returns the selector, the input
// with the open blocks balanced, and the number of closers appended.
func danglingSelector(cssText string) (selector, balanced string, closers int) {
	stripped := stripStrings(cssText)
	depth := 0
	tailStart := 0
	openIdx := -1
	for i := 0; i < len(stripped); i++ {
		switch stripped[i] {
		case '{':
			if depth == 0 {
				openIdx = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				tailStart = i + 1
				openIdx = -1
			}
		}
	}
	if depth == 0 || openIdx < 0 {
		return "", cssText, 0
	}
	tail := stripped[tailStart:openIdx]
	if semi := strings.LastIndexByte(tail, ';'); semi >= 0 {
		tail = tail[semi+1:]
	}
	return strings.TrimSpace(tail), cssText + strings.Repeat("}", depth), depth
}

// prefixSelector scopes a selector under the synthetic wrapper class,
// handling comma-separated selector lists (commas inside parentheses do not
// split).
func prefixSelector(wrapper, sel string) string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i <= len(sel); i++ {
		if i < len(sel) {
			switch sel[i] {
			case '(':
				depth++
				continue
			case ')':
				if depth > 0 {
					depth--
				}
				continue
			}
			if sel[i] != ',' || depth != 0 {
				continue
			}
		}
		part := strings.TrimSpace(sel[start:i])
		if part != "" {
			parts = append(parts, "."+wrapper+" "+part)
		}
		start = i + 1
	}
	return strings.Join(parts, ",")
}

// groupGlobal rewrites the sheet for the page-global branch: all bare
// declarations collapse into one synthetic rule scoped to the wrapper class
// (placed where the first bare declaration appeared), every other selector
// is prefixed with the wrapper, and relative order is preserved - for global
// CSS, order is author intent.
func groupGlobal(s *css.Stylesheet, wrapper string) {
	var (
		out     []css.Item
		grouped []css.Declaration
		slot    = -1
	)
	for _, it := range s.Items {
		if it.Declaration != nil {
			if slot < 0 {
				slot = len(out)
				out = append(out, css.Item{}) // placeholder for the wrapper rule
			}
			grouped = append(grouped, *it.Declaration)
			continue
		}
		r := *it.Rule
		if r.IsAtRule() {
			children := make([]css.Rule, len(r.Rules))
			for i, child := range r.Rules {
				children[i] = child
				if child.Selector == "" {
					children[i].Selector = "." + wrapper
				} else {
					children[i].Selector = prefixSelector(wrapper, child.Selector)
				}
			}
			r.Rules = children
		} else {
			r.Selector = prefixSelector(wrapper, r.Selector)
		}
		out = append(out, css.Item{Rule: &r})
	}
	if slot >= 0 {
		out[slot] = css.Item{Rule: &css.Rule{Selector: "." + wrapper, Declarations: grouped}}
	}
	s.Items = out
}
