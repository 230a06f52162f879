package transform

import (
	"strings"
)

// pass is one step of the compilation pipeline. The pipeline is an explicit
// ordered list selected from the options up front, not branching scattered
// through the compiler.
type pass struct {
	name string
	run  func(*job) error
}

func (c *Compiler) pipeline(opts Options) []pass {
	passes := []pass{
		{"normalize", func(j *job) error { normalizeSheet(j.sheet); return nil }},
		{"unwrap", func(j *job) error { unwrapSheet(j.sheet); return nil }},
	}

	if opts.Global {
		passes = append(passes, pass{"group-global", c.groupGlobalPass})
	} else {
		passes = append(passes, pass{"atomize", c.atomizePass})
		if len(opts.Conditionals) > 0 {
			passes = append(passes, pass{"atomize-conditional", c.atomizeConditionals})
		}
	}
	if opts.IncreaseSpecificity {
		passes = append(passes, pass{"specificity", increaseSpecificity})
	}
	if !opts.Global {
		// the splitter's emission order follows source appearance and is
		// not cascade-safe; global CSS keeps author order instead
		passes = append(passes, pass{"sort", sortEmitted})
	}
	if opts.OptimizeCSS {
		passes = append(passes, pass{"finish", finishEmitted})
	}
	return append(passes, pass{"extract", extractSheets})
}

func (c *Compiler) atomizePass(j *job) error {
	seen := make(map[tripleKey]string)
	c.atomizeSheet(j, j.sheet, seen, &j.res.ClassNames, "")
	return nil
}

func (c *Compiler) groupGlobalPass(j *job) error {
	wrapper := hashName(j.opts.ClassHashPrefix, "global", j.input)
	if mapped, ok := j.opts.ClassNameCompressionMap[wrapper]; ok {
		wrapper = mapped
	}
	groupGlobal(j.sheet, wrapper)
	j.res.ClassNames = append(j.res.ClassNames, wrapper)

	for _, it := range j.sheet.Items {
		if it.Rule == nil {
			continue
		}
		e := emitted{rule: *it.Rule}
		if it.Rule.IsAtRule() {
			e.atName = it.Rule.AtRuleName()
		}
		j.emitted = append(j.emitted, e)
	}
	return nil
}

// extractSheets serializes the finished rules into an ordered sequence of
// minimal, independent rule strings - each one insertable and removable
// without touching the others.
func extractSheets(j *job) error {
	j.res.Sheets = make([]string, len(j.emitted))
	for i := range j.emitted {
		j.res.Sheets[i] = j.emitted[i].rule.String()
	}
	return nil
}

// dump renders the current pipeline state for tracing.
func (j *job) dump() string {
	if len(j.emitted) > 0 {
		var sb strings.Builder
		for i := range j.emitted {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(j.emitted[i].rule.String())
		}
		return sb.String()
	}
	return j.sheet.String()
}
