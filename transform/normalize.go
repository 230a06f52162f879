package transform

import (
	"strings"

	"acss/css"
)

// normalizeSheet expands shorthand declarations into their longhand
// equivalents, keeps only the last declaration of each property per rule
// (cascade-within-a-rule) and removes rules left empty. Top-level bare
// declarations are treated as one rule for dedup purposes.
func normalizeSheet(s *css.Stylesheet) {
	var out []css.Item
	for _, it := range s.Items {
		if it.Declaration != nil {
			for _, d := range expandShorthand(*it.Declaration) {
				out = append(out, css.Item{Declaration: &d})
			}
			continue
		}
		r := *it.Rule
		normalizeRule(&r)
		if !r.Empty() {
			out = append(out, css.Item{Rule: &r})
		}
	}
	s.Items = dedupeTopLevel(out)
}

func normalizeRule(r *css.Rule) {
	var decls []css.Declaration
	for _, d := range r.Declarations {
		decls = append(decls, expandShorthand(d)...)
	}
	r.Declarations = dedupeLast(decls)

	var kept []css.Rule
	for i := range r.Rules {
		nr := r.Rules[i]
		normalizeRule(&nr)
		if !nr.Empty() {
			kept = append(kept, nr)
		}
	}
	r.Rules = kept
}

// dedupeLast keeps only the last declaration per property, preserving the
// relative order of the survivors.
func dedupeLast(decls []css.Declaration) []css.Declaration {
	if len(decls) < 2 {
		return decls
	}
	seen := make(map[string]bool, len(decls))
	out := make([]css.Declaration, 0, len(decls))
	for i := len(decls) - 1; i >= 0; i-- {
		if seen[decls[i].Property] {
			continue
		}
		seen[decls[i].Property] = true
		out = append(out, decls[i])
	}
	// restore source order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// dedupeTopLevel applies last-wins dedup over top-level bare declarations
// while leaving rules (and the declarations' position among them) intact.
func dedupeTopLevel(items []css.Item) []css.Item {
	seen := make(map[string]bool)
	keep := make([]bool, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Declaration == nil {
			keep[i] = true
			continue
		}
		if !seen[items[i].Declaration.Property] {
			seen[items[i].Declaration.Property] = true
			keep[i] = true
		}
	}
	out := items[:0]
	for i, it := range items {
		if keep[i] {
			out = append(out, it)
		}
	}
	return out
}

// splitValues splits a value on whitespace outside parentheses, so
// "calc(1px + 2px) auto" yields two parts.
func splitValues(v string) []string {
	var (
		parts []string
		depth int
		start = -1
	)
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ' ', '\t':
			if depth == 0 && start >= 0 {
				parts = append(parts, v[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, v[start:])
	}
	return parts
}

// boxSides resolves the 1-4 value shorthand pattern into the four sides.
func boxSides(vals []string) (top, right, bottom, left string, ok bool) {
	switch len(vals) {
	case 1:
		return vals[0], vals[0], vals[0], vals[0], true
	case 2:
		return vals[0], vals[1], vals[0], vals[1], true
	case 3:
		return vals[0], vals[1], vals[2], vals[1], true
	case 4:
		return vals[0], vals[1], vals[2], vals[3], true
	}
	return "", "", "", "", false
}

// corners resolves the border-radius 1-4 value pattern: top-left, top-right,
// bottom-right, bottom-left.
func corners(vals []string) (tl, tr, br, bl string, ok bool) {
	switch len(vals) {
	case 1:
		return vals[0], vals[0], vals[0], vals[0], true
	case 2:
		return vals[0], vals[1], vals[0], vals[1], true
	case 3:
		return vals[0], vals[1], vals[2], vals[1], true
	case 4:
		return vals[0], vals[1], vals[2], vals[3], true
	}
	return "", "", "", "", false
}

func sideDecls(base, suffix string, d css.Declaration, top, right, bottom, left string) []css.Declaration {
	mk := func(side, v string) css.Declaration {
		prop := base + "-" + side
		if suffix != "" {
			prop += "-" + suffix
		}
		return css.Declaration{Property: prop, Value: v, Important: d.Important}
	}
	return []css.Declaration{mk("top", top), mk("right", right), mk("bottom", bottom), mk("left", left)}
}

func pairDecls(d css.Declaration, first, second string, vals []string) []css.Declaration {
	a, b := "", ""
	switch len(vals) {
	case 1:
		a, b = vals[0], vals[0]
	case 2:
		a, b = vals[0], vals[1]
	default:
		return []css.Declaration{d}
	}
	return []css.Declaration{
		{Property: first, Value: a, Important: d.Important},
		{Property: second, Value: b, Important: d.Important},
	}
}

// expandShorthand expands the shorthand patterns the author-facing surface
// produces. Anything it does not recognize passes through untouched - later
// passes never depend on full expansion, only dedup precision does.
func expandShorthand(d css.Declaration) []css.Declaration {
	vals := splitValues(d.Value)
	switch d.Property {
	case "margin", "padding":
		if t, r, b, l, ok := boxSides(vals); ok {
			return sideDecls(d.Property, "", d, t, r, b, l)
		}
	case "inset":
		if t, r, b, l, ok := boxSides(vals); ok {
			return []css.Declaration{
				{Property: "top", Value: t, Important: d.Important},
				{Property: "right", Value: r, Important: d.Important},
				{Property: "bottom", Value: b, Important: d.Important},
				{Property: "left", Value: l, Important: d.Important},
			}
		}
	case "border-width", "border-style", "border-color":
		suffix := strings.TrimPrefix(d.Property, "border-")
		if t, r, b, l, ok := boxSides(vals); ok {
			return sideDecls("border", suffix, d, t, r, b, l)
		}
	case "border-radius":
		if strings.Contains(d.Value, "/") {
			break // elliptical radii stay unexpanded
		}
		if tl, tr, br, bl, ok := corners(vals); ok {
			return []css.Declaration{
				{Property: "border-top-left-radius", Value: tl, Important: d.Important},
				{Property: "border-top-right-radius", Value: tr, Important: d.Important},
				{Property: "border-bottom-right-radius", Value: br, Important: d.Important},
				{Property: "border-bottom-left-radius", Value: bl, Important: d.Important},
			}
		}
	case "overflow":
		return pairDecls(d, "overflow-x", "overflow-y", vals)
	case "gap":
		return pairDecls(d, "row-gap", "column-gap", vals)
	case "place-items":
		return pairDecls(d, "align-items", "justify-items", vals)
	case "place-content":
		return pairDecls(d, "align-content", "justify-content", vals)
	case "place-self":
		return pairDecls(d, "align-self", "justify-self", vals)
	case "flex":
		if out := expandFlex(d, vals); out != nil {
			return out
		}
	}
	return []css.Declaration{d}
}

func expandFlex(d css.Declaration, vals []string) []css.Declaration {
	mk := func(grow, shrink, basis string) []css.Declaration {
		return []css.Declaration{
			{Property: "flex-grow", Value: grow, Important: d.Important},
			{Property: "flex-shrink", Value: shrink, Important: d.Important},
			{Property: "flex-basis", Value: basis, Important: d.Important},
		}
	}
	isNum := func(s string) bool {
		if s == "" {
			return false
		}
		for i := 0; i < len(s); i++ {
			if (s[i] < '0' || s[i] > '9') && s[i] != '.' {
				return false
			}
		}
		return true
	}
	switch len(vals) {
	case 1:
		switch {
		case vals[0] == "none":
			return mk("0", "0", "auto")
		case vals[0] == "auto":
			return mk("1", "1", "auto")
		case vals[0] == "initial":
			return mk("0", "1", "auto")
		case isNum(vals[0]):
			return mk(vals[0], "1", "0%")
		default:
			return mk("1", "1", vals[0])
		}
	case 2:
		if isNum(vals[0]) && isNum(vals[1]) {
			return mk(vals[0], vals[1], "0%")
		}
		if isNum(vals[0]) {
			return mk(vals[0], "1", vals[1])
		}
	case 3:
		if isNum(vals[0]) && isNum(vals[1]) {
			return mk(vals[0], vals[1], vals[2])
		}
	}
	return nil
}
