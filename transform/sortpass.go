package transform

import (
	"sort"
	"strings"

	"acss/common"
	"acss/css"
)

// increaseSpecificity repeats the leading class selector (".a" -> ".a.a") to
// out-rank competing rules without resorting to !important. At-rule preludes
// are untouched and pseudo-element selectors are skipped: repetition there
// would change matching semantics.
func increaseSpecificity(j *job) error {
	for i := range j.emitted {
		r := &j.emitted[i].rule
		if r.IsAtRule() {
			for k := range r.Rules {
				bumpSpecificity(&r.Rules[k])
			}
			continue
		}
		bumpSpecificity(r)
	}
	return nil
}

func bumpSpecificity(r *css.Rule) {
	sel := r.Selector
	if !strings.HasPrefix(sel, ".") || css.HasPseudoElement(sel) {
		return
	}
	end := 1
	for end < len(sel) && isIdentByte(sel[end]) {
		end++
	}
	if end == 1 {
		return
	}
	r.Selector = sel[:end] + sel[:end] + sel[end:]
}

func isIdentByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Fixed at-rule precedence used when sort_at_rules is enabled.
var atRulePrecedence = map[string]int{
	"@media":     0,
	"@supports":  1,
	"@container": 2,
	"@layer":     3,
}

func atRuleRank(name string) int {
	if p, ok := atRulePrecedence[name]; ok {
		return p
	}
	return len(atRulePrecedence)
}

// Shorthand roots recognized by the shorthand-before-longhand sub-sort. A
// longhand must never be emitted before a shorthand that could override it.
var shorthandRoots = map[string]bool{
	"animation":       true,
	"background":      true,
	"border":          true,
	"border-bottom":   true,
	"border-color":    true,
	"border-left":     true,
	"border-radius":   true,
	"border-right":    true,
	"border-style":    true,
	"border-top":      true,
	"border-width":    true,
	"column-rule":     true,
	"flex":            true,
	"flex-flow":       true,
	"font":            true,
	"gap":             true,
	"grid":            true,
	"inset":           true,
	"list-style":      true,
	"margin":          true,
	"outline":         true,
	"overflow":        true,
	"padding":         true,
	"place-content":   true,
	"place-items":     true,
	"place-self":      true,
	"text-decoration": true,
	"transition":      true,
}

// shorthandDepth counts how many shorthand roots the property refines:
// "border" is 1, "border-top" is 2, "border-top-width" is 3. Properties
// outside any shorthand family stay at 1 and keep their stable position.
func shorthandDepth(prop string) int {
	depth := 1
	for root := range shorthandRoots {
		if strings.HasPrefix(prop, root+"-") {
			depth++
		}
	}
	return depth
}

// sortEmitted is the final cascade-safety sort. The splitter emits rules in
// source appearance order, which is not cascade-safe by construction; this
// pass reorders them so cascade correctness no longer depends on source
// order: at-rules last (optionally sub-sorted by the fixed at-rule
// precedence), pseudo-classes in link/visited/focus/hover/active order, and
// shorthands ahead of the longhands that could override them. The sort is
// stable, so rules with equal keys keep their emission order.
func sortEmitted(j *job) error {
	rank := func(e *emitted) (int, int, int, int) {
		if e.atName != "" {
			at := 0
			if j.opts.SortAtRules {
				at = atRuleRank(e.atName)
			}
			return 1, at, 0, 0
		}
		depth := 0
		if j.opts.SortShorthand {
			depth = shorthandDepth(e.property)
		}
		return 0, 0, int(common.PseudoBucket(e.pseudo)), depth
	}
	sort.SliceStable(j.emitted, func(a, b int) bool {
		a1, a2, a3, a4 := rank(&j.emitted[a])
		b1, b2, b3, b4 := rank(&j.emitted[b])
		if a1 != b1 {
			return a1 < b1
		}
		if a2 != b2 {
			return a2 < b2
		}
		if a3 != b3 {
			return a3 < b3
		}
		return a4 < b4
	})
	return nil
}
