// Package transform compiles an author-written CSS fragment into a minimal
// set of deduplicated, independently insertable atomic rule strings plus the
// class names that reference them. Compilation is pure and synchronous:
// independent calls may run in parallel with no coordination.
package transform

import (
	"fmt"

	"go.uber.org/zap"

	"acss/css"
)

// Options control one compilation.
type Options struct {
	// Global selects the page-global branch: no atomic splitting, source
	// order preserved, everything scoped under one content-hashed wrapper.
	Global bool

	// OptimizeCSS enables the finishing passes (vendor prefixing and
	// whitespace stripping).
	OptimizeCSS bool

	// IncreaseSpecificity repeats class selectors to out-rank third-party
	// rules without !important.
	IncreaseSpecificity bool

	// SortAtRules sub-sorts trailing at-rules by the fixed at-rule-type
	// precedence.
	SortAtRules bool

	// SortShorthand emits shorthand properties ahead of the longhands they
	// could be overridden by.
	SortShorthand bool

	// ClassHashPrefix namespaces generated class names so independently
	// compiled sources cannot collide.
	ClassHashPrefix string

	// ClassNameCompressionMap remaps generated class names to shorter
	// production tokens. It must be a bijection over the names it covers;
	// Compile verifies that before any output is produced.
	ClassNameCompressionMap map[string]string

	// Conditionals are pre-tagged conditional CSS fragments. They compile
	// through a separate path: never deduplicated against unconditional
	// rules, and nested under any selector block the unconditional CSS left
	// open.
	Conditionals []string

	// Trace, when set, receives the serialized pipeline state after every
	// pass. Used by the debug reporter.
	Trace func(pass, state string)
}

// Result of one compilation.
type Result struct {
	// Sheets are the finished rule strings in cascade-safe order. Each is
	// self-contained and insertable on its own.
	Sheets []string

	// ClassNames reference the unconditional sheets.
	ClassNames []string

	// ConditionalClassNames holds, per conditional fragment, the class
	// names to apply when the originating expression is true.
	ConditionalClassNames [][]string
}

// Compiler runs the compilation pipeline. It is stateless between calls and
// safe for concurrent use.
type Compiler struct {
	log    *zap.Logger
	parser *css.Parser
}

// NewCompiler creates a compiler.
func NewCompiler(log *zap.Logger) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("compiler")
	return &Compiler{log: log, parser: css.NewParser(log)}
}

type job struct {
	opts     Options
	input    string // original input text, used for global content hashing
	dangling string // selector left open by the unconditional tail
	sheet    *css.Stylesheet
	emitted  []emitted
	res      *Result
}

// Compile runs the full pipeline over one CSS fragment. On malformed input
// it fails with *css.ParseError and returns no partial output: a partially
// compiled stylesheet would silently drop styles.
func (c *Compiler) Compile(input string, opts Options) (*Result, error) {
	if err := checkCompressionMap(opts.ClassNameCompressionMap); err != nil {
		return nil, err
	}

	text := input
	dangling := ""
	if len(opts.Conditionals) > 0 {
		// a selector block left open by the unconditional tail is not
		// malformed input here - it is the context the conditionals nest
		// under
		var closers int
		dangling, text, closers = danglingSelector(input)
		if closers > 0 {
			c.log.Debug("Unconditional tail left a block open",
				zap.String("selector", dangling), zap.Int("closers", closers))
		}
	}

	sheet, err := c.parser.Parse([]byte(text))
	if err != nil {
		return nil, err
	}

	j := &job{
		opts:     opts,
		input:    input,
		dangling: dangling,
		sheet:    sheet,
		res:      &Result{},
	}
	for _, p := range c.pipeline(opts) {
		if err := p.run(j); err != nil {
			return nil, err
		}
		if opts.Trace != nil {
			opts.Trace(p.name, j.dump())
		}
	}
	c.log.Debug("Compilation finished",
		zap.Int("sheets", len(j.res.Sheets)), zap.Int("classes", len(j.res.ClassNames)))
	return j.res, nil
}

// checkCompressionMap verifies the caller-supplied remap is injective over
// its domain. Two distinct class names collapsing to one compressed token
// would silently merge unrelated styles.
func checkCompressionMap(m map[string]string) error {
	if len(m) == 0 {
		return nil
	}
	inverse := make(map[string]string, len(m))
	for from, to := range m {
		if prev, clash := inverse[to]; clash {
			a, b := prev, from
			if b < a {
				a, b = b, a
			}
			return fmt.Errorf("class name compression map is not a bijection: %q and %q both map to %q", a, b, to)
		}
		inverse[to] = from
	}
	return nil
}
