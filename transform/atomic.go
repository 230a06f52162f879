package transform

import (
	"strings"

	"go.uber.org/zap"

	"acss/css"
)

// tripleKey identifies an atomic rule: selector context (at-rule prelude
// included), property and value. Identical triples anywhere in one
// compilation collapse to one rule and one class name.
type tripleKey struct {
	ctx       string
	prop      string
	value     string
	important bool
}

// emitted is one finished top-level rule plus the metadata the cascade
// sorting pass needs.
type emitted struct {
	rule     css.Rule
	atName   string // "@media", "@supports", ... or "" for plain rules
	pseudo   string // first pseudo-class of the inner selector context
	property string // the single declaration's property (atomic branch only)
}

// selectorContext turns an unwrapped selector into the suffix applied to the
// generated class: pseudo and attribute suffixes attach directly, anything
// else is a descendant context.
func selectorContext(sel string) string {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return ""
	}
	if strings.HasPrefix(sel, ":") || strings.HasPrefix(sel, "[") {
		return sel
	}
	return " " + sel
}

// atomizeSheet splits every (selector-context, declaration) pair of the
// unwrapped sheet into its own single-declaration rule, deduplicating
// against seen and appending generated class names to names.
func (c *Compiler) atomizeSheet(j *job, s *css.Stylesheet, seen map[tripleKey]string, names *[]string, baseCtx string) {
	for _, it := range s.Items {
		if it.Declaration != nil {
			c.emitAtomic(j, seen, "", baseCtx, *it.Declaration, names)
			continue
		}
		r := it.Rule
		if r.IsAtRule() {
			for _, child := range r.Rules {
				ctx := composeContext(baseCtx, child.Selector)
				for _, d := range child.Declarations {
					c.emitAtomic(j, seen, r.Selector, ctx, d, names)
				}
			}
			continue
		}
		ctx := composeContext(baseCtx, r.Selector)
		for _, d := range r.Declarations {
			c.emitAtomic(j, seen, "", ctx, d, names)
		}
	}
}

func composeContext(base, sel string) string {
	if base == "" {
		return selectorContext(sel)
	}
	if sel == "" {
		return base
	}
	return base + selectorContext(sel)
}

func (c *Compiler) emitAtomic(j *job, seen map[tripleKey]string, at, ctx string, d css.Declaration, names *[]string) {
	key := tripleKey{ctx: at + "|" + ctx, prop: d.Property, value: d.Value, important: d.Important}
	if _, dup := seen[key]; dup {
		// already emitted in this compilation, nothing to add
		return
	}

	imp := ""
	if d.Important {
		imp = "!"
	}
	name := hashName(j.opts.ClassHashPrefix, key.ctx, d.Property, d.Value+imp)
	if mapped, ok := j.opts.ClassNameCompressionMap[name]; ok {
		name = mapped
	}
	seen[key] = name
	*names = append(*names, name)

	inner := css.Rule{Selector: "." + name + ctx, Declarations: []css.Declaration{d}}
	e := emitted{pseudo: css.FirstPseudoClass(ctx), property: d.Property}
	if at != "" {
		wrapper := css.Rule{Selector: at, Rules: []css.Rule{inner}}
		e.rule = wrapper
		e.atName = wrapper.AtRuleName()
	} else {
		e.rule = inner
	}
	j.emitted = append(j.emitted, e)
	c.log.Debug("Atomic rule emitted", zap.String("class", name), zap.String("property", d.Property))
}

// atomizeConditionals compiles the pre-tagged conditional fragments through
// their own path: they are never deduplicated against unconditional rules
// (their class names are gated behind the originating expression), and any
// selector block left open by the unconditional CSS becomes their context.
func (c *Compiler) atomizeConditionals(j *job) error {
	j.res.ConditionalClassNames = make([][]string, len(j.opts.Conditionals))

	base := ""
	if j.dangling != "" {
		base = selectorContext(resolveSelector("", j.dangling))
	}

	for i, frag := range j.opts.Conditionals {
		sheet, err := c.parser.Parse([]byte(frag), "conditional")
		if err != nil {
			return err
		}
		normalizeSheet(sheet)
		unwrapSheet(sheet)

		seen := make(map[tripleKey]string)
		var names []string
		c.atomizeSheet(j, sheet, seen, &names, base)
		j.res.ConditionalClassNames[i] = names
	}
	return nil
}
