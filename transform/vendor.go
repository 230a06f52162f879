package transform

import (
	"strings"

	"acss/css"
)

// Vendor prefixing and whitespace finishing. This pass has a fixed contract:
// given finished rules it returns equivalent rules with target-browser
// prefixed declarations inserted immediately before their unprefixed source
// and with insignificant whitespace collapsed. The tables below are the
// whole algorithm; they cover what the author-facing surface produces, not
// the full historical prefix landscape.

var propertyPrefixes = map[string][]string{
	"appearance":           {"-webkit-", "-moz-"},
	"backdrop-filter":      {"-webkit-"},
	"background-clip":      {"-webkit-"},
	"box-decoration-break": {"-webkit-"},
	"hyphens":              {"-webkit-", "-ms-"},
	"mask-image":           {"-webkit-"},
	"tab-size":             {"-moz-"},
	"text-size-adjust":     {"-webkit-", "-ms-"},
	"user-select":          {"-webkit-", "-ms-"},
}

var valuePrefixes = map[string]map[string][]string{
	"position": {
		"sticky": {"-webkit-"},
	},
	"width":      sizingKeywords,
	"min-width":  sizingKeywords,
	"max-width":  sizingKeywords,
	"height":     sizingKeywords,
	"min-height": sizingKeywords,
	"max-height": sizingKeywords,
}

var sizingKeywords = map[string][]string{
	"fit-content": {"-moz-"},
	"max-content": {"-moz-"},
	"min-content": {"-moz-"},
}

func finishEmitted(j *job) error {
	for i := range j.emitted {
		finishRule(&j.emitted[i].rule)
	}
	return nil
}

func finishRule(r *css.Rule) {
	r.Declarations = vendorize(r.Declarations)
	for i := range r.Rules {
		finishRule(&r.Rules[i])
	}
}

func vendorize(decls []css.Declaration) []css.Declaration {
	var out []css.Declaration
	for _, d := range decls {
		d.Value = collapseValue(d.Value)
		for _, p := range propertyPrefixes[d.Property] {
			out = append(out, css.Declaration{Property: p + d.Property, Value: d.Value, Important: d.Important})
		}
		if byValue := valuePrefixes[d.Property]; byValue != nil {
			for _, p := range byValue[d.Value] {
				out = append(out, css.Declaration{Property: d.Property, Value: p + d.Value, Important: d.Important})
			}
		}
		out = append(out, d)
	}
	return out
}

// collapseValue strips insignificant whitespace from a value: runs collapse
// to one space and spaces around commas and parentheses disappear. Quoted
// string content is copied verbatim.
func collapseValue(v string) string {
	var sb strings.Builder
	sb.Grow(len(v))
	var quote byte
	pendingSpace := false
	for i := 0; i < len(v); i++ {
		c := v[i]
		if quote != 0 {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(v) {
				sb.WriteByte(v[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == ' ' || c == '\t' {
			pendingSpace = sb.Len() > 0
			continue
		}
		if pendingSpace {
			if c != ',' && c != ')' {
				prev := sb.String()[sb.Len()-1]
				if prev != ',' && prev != '(' {
					sb.WriteByte(' ')
				}
			}
			pendingSpace = false
		}
		if c == '"' || c == '\'' {
			quote = c
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
