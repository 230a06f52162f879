package transform

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func compile(t *testing.T, input string, opts Options) *Result {
	t.Helper()
	res, err := NewCompiler(zap.NewNop()).Compile(input, opts)
	if err != nil {
		t.Fatalf("Compile(%q) error = %v", input, err)
	}
	return res
}

func TestCompile_AtomicSplit(t *testing.T) {
	res := compile(t, "color: red; font-size: 12px;", Options{})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if len(res.ClassNames) != 2 {
		t.Fatalf("got %d class names, want 2: %v", len(res.ClassNames), res.ClassNames)
	}
	for i, name := range res.ClassNames {
		if !strings.HasPrefix(name, "_") || len(name) != 1+classTokenLen {
			t.Errorf("class name %q is not a hashed token", name)
		}
		if !strings.Contains(res.Sheets[i], "."+name+"{") {
			t.Errorf("sheet %q does not use class %q", res.Sheets[i], name)
		}
	}
	if !strings.Contains(res.Sheets[0], "{color:red}") {
		t.Errorf("first sheet = %q, want a color:red rule", res.Sheets[0])
	}
	if !strings.Contains(res.Sheets[1], "{font-size:12px}") {
		t.Errorf("second sheet = %q, want a font-size rule", res.Sheets[1])
	}
}

func TestCompile_Deterministic(t *testing.T) {
	const input = "color:red; &:hover{color:blue;} @media screen{margin-top:1px;}"

	a := compile(t, input, Options{})
	b := compile(t, input, Options{})

	if !reflect.DeepEqual(a, b) {
		t.Errorf("two compilations of the same input differ:\n%v\n%v", a, b)
	}
}

func TestCompile_CrossCompilationDedup(t *testing.T) {
	// the same triple must hash to the same class name in independent
	// compilations, that is what makes duplicates collapse at runtime
	a := compile(t, "color:red;", Options{})
	b := compile(t, "margin-top:1px; color:red;", Options{})

	if len(a.ClassNames) != 1 || len(b.ClassNames) != 2 {
		t.Fatalf("unexpected class counts: %v %v", a.ClassNames, b.ClassNames)
	}
	if a.ClassNames[0] != b.ClassNames[1] {
		t.Errorf("color:red named %q in one compilation and %q in another", a.ClassNames[0], b.ClassNames[1])
	}
	if a.Sheets[0] != b.Sheets[1] {
		t.Errorf("color:red sheet differs across compilations: %q vs %q", a.Sheets[0], b.Sheets[1])
	}
}

func TestCompile_DuplicateTriplesCollapse(t *testing.T) {
	res := compile(t, "div{color:red;} div{color:red;}", Options{})

	if len(res.Sheets) != 1 {
		t.Fatalf("got %d sheets, want 1: %v", len(res.Sheets), res.Sheets)
	}
	if len(res.ClassNames) != 1 {
		t.Fatalf("got %d class names, want 1: %v", len(res.ClassNames), res.ClassNames)
	}
}

func TestCompile_ContextKeepsTriplesApart(t *testing.T) {
	res := compile(t, "color:red; &:hover{color:red;} div{color:red;}", Options{})

	if len(res.Sheets) != 3 {
		t.Fatalf("got %d sheets, want 3: %v", len(res.Sheets), res.Sheets)
	}
	names := map[string]bool{}
	for _, n := range res.ClassNames {
		names[n] = true
	}
	if len(names) != 3 {
		t.Errorf("contexts must produce distinct class names, got %v", res.ClassNames)
	}
}

func TestCompile_ImportantKeepsTriplesApart(t *testing.T) {
	res := compile(t, "color:red; &:hover{color:red !important;}", Options{})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if res.ClassNames[0] == res.ClassNames[1] {
		t.Errorf("important flag must participate in the class name, got %v", res.ClassNames)
	}
}

func TestCompile_PseudoOrdering(t *testing.T) {
	// arrival order is hover, active, catch-all, focus; output order must be
	// the fixed cascade order no matter what
	res := compile(t, "&:hover{color:blue;} &:active{color:green;} color:red; &:focus{color:black;}", Options{})

	if len(res.Sheets) != 4 {
		t.Fatalf("got %d sheets, want 4: %v", len(res.Sheets), res.Sheets)
	}
	wantOrder := []string{"{color:red}", ":focus{", ":hover{", ":active{"}
	for i, frag := range wantOrder {
		if !strings.Contains(res.Sheets[i], frag) {
			t.Errorf("sheet %d = %q, want it to contain %q", i, res.Sheets[i], frag)
		}
	}
}

func TestCompile_AtRulesLast(t *testing.T) {
	res := compile(t, "@media (max-width:600px){color:red;} color:blue;", Options{})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if strings.HasPrefix(res.Sheets[0], "@") {
		t.Errorf("plain rule must precede at-rules, got %v", res.Sheets)
	}
	if !strings.HasPrefix(res.Sheets[1], "@media (max-width:600px){") {
		t.Errorf("second sheet = %q, want a @media wrapper", res.Sheets[1])
	}
}

func TestCompile_SortAtRules(t *testing.T) {
	const input = "@supports (display:grid){color:red;} @media screen{color:blue;}"

	res := compile(t, input, Options{SortAtRules: true})
	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if !strings.HasPrefix(res.Sheets[0], "@media") || !strings.HasPrefix(res.Sheets[1], "@supports") {
		t.Errorf("at-rule precedence not applied: %v", res.Sheets)
	}

	// without the option arrival order wins
	res = compile(t, input, Options{})
	if !strings.HasPrefix(res.Sheets[0], "@supports") {
		t.Errorf("without sort_at_rules arrival order must hold: %v", res.Sheets)
	}
}

func TestCompile_SortShorthand(t *testing.T) {
	res := compile(t, "border-top-width:1px; border:none;", Options{SortShorthand: true})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if !strings.Contains(res.Sheets[0], "border:none") {
		t.Errorf("shorthand must precede its longhands, got %v", res.Sheets)
	}
}

func TestCompile_LastDeclarationWins(t *testing.T) {
	res := compile(t, "color:red; color:blue;", Options{})

	if len(res.Sheets) != 1 {
		t.Fatalf("got %d sheets, want 1: %v", len(res.Sheets), res.Sheets)
	}
	if !strings.Contains(res.Sheets[0], "color:blue") {
		t.Errorf("sheet = %q, want the later declaration", res.Sheets[0])
	}
}

func TestCompile_ShorthandExpansion(t *testing.T) {
	res := compile(t, "padding: 0 8px;", Options{})

	if len(res.Sheets) != 4 {
		t.Fatalf("got %d sheets, want 4: %v", len(res.Sheets), res.Sheets)
	}
	want := map[string]string{
		"padding-top":    "0",
		"padding-right":  "8px",
		"padding-bottom": "0",
		"padding-left":   "8px",
	}
	for prop, val := range want {
		found := false
		for _, s := range res.Sheets {
			if strings.Contains(s, prop+":"+val+"}") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no sheet carries %s:%s, got %v", prop, val, res.Sheets)
		}
	}
}

func TestCompile_ClassHashPrefix(t *testing.T) {
	plain := compile(t, "color:red;", Options{})
	prefixed := compile(t, "color:red;", Options{ClassHashPrefix: "x1"})

	if !strings.HasPrefix(prefixed.ClassNames[0], "_x1") {
		t.Errorf("prefixed class name = %q, want _x1 prefix", prefixed.ClassNames[0])
	}
	if strings.TrimPrefix(prefixed.ClassNames[0], "_x1") == strings.TrimPrefix(plain.ClassNames[0], "_") {
		t.Error("prefix must participate in the hash, not just the visible token")
	}
}

func TestCompile_IncreaseSpecificity(t *testing.T) {
	res := compile(t, "color:red;", Options{IncreaseSpecificity: true})

	name := res.ClassNames[0]
	want := "." + name + "." + name + "{color:red}"
	if res.Sheets[0] != want {
		t.Errorf("sheet = %q, want %q", res.Sheets[0], want)
	}
}

func TestCompile_OptimizeVendorPrefixes(t *testing.T) {
	res := compile(t, "user-select: none;", Options{OptimizeCSS: true})

	if len(res.Sheets) != 1 {
		t.Fatalf("got %d sheets, want 1: %v", len(res.Sheets), res.Sheets)
	}
	want := "{-webkit-user-select:none;-ms-user-select:none;user-select:none}"
	if !strings.Contains(res.Sheets[0], want) {
		t.Errorf("sheet = %q, want it to contain %q", res.Sheets[0], want)
	}
}

func TestCompile_OptimizeWhitespace(t *testing.T) {
	res := compile(t, "color: rgb(1, 2, 3);", Options{OptimizeCSS: true})

	if !strings.Contains(res.Sheets[0], "color:rgb(1,2,3)") {
		t.Errorf("sheet = %q, want collapsed value", res.Sheets[0])
	}
}

func TestCompile_CompressionMap(t *testing.T) {
	// learn the generated name first
	probe := compile(t, "color:red;", Options{})
	name := probe.ClassNames[0]

	res := compile(t, "color:red;", Options{ClassNameCompressionMap: map[string]string{name: "a"}})
	if res.ClassNames[0] != "a" {
		t.Errorf("class name = %q, want compressed token a", res.ClassNames[0])
	}
	if res.Sheets[0] != ".a{color:red}" {
		t.Errorf("sheet = %q, want .a{color:red}", res.Sheets[0])
	}
}

func TestCompile_CompressionMapNotBijective(t *testing.T) {
	_, err := NewCompiler(zap.NewNop()).Compile("color:red;", Options{
		ClassNameCompressionMap: map[string]string{"_a": "x", "_b": "x"},
	})
	if err == nil {
		t.Fatal("expected bijection error")
	}
	if !strings.Contains(err.Error(), "bijection") {
		t.Errorf("error = %v, want a bijection complaint", err)
	}
}

func TestCompile_MalformedInput(t *testing.T) {
	_, err := NewCompiler(zap.NewNop()).Compile("a{color:red", Options{})
	if err == nil {
		t.Fatal("expected parse error for unbalanced input")
	}
}

func TestCompile_Global(t *testing.T) {
	res := compile(t, "color:red; div{font-size:10px;}", Options{Global: true})

	if len(res.ClassNames) != 1 {
		t.Fatalf("got %d class names, want the single wrapper: %v", len(res.ClassNames), res.ClassNames)
	}
	w := res.ClassNames[0]

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if res.Sheets[0] != "."+w+"{color:red}" {
		t.Errorf("first sheet = %q, want the grouped wrapper rule", res.Sheets[0])
	}
	if res.Sheets[1] != "."+w+" div{font-size:10px}" {
		t.Errorf("second sheet = %q, want the prefixed div rule", res.Sheets[1])
	}
}

func TestCompile_GlobalKeepsSourceOrder(t *testing.T) {
	// hover arriving before the catch-all rule must stay there: for global
	// CSS order is author intent
	res := compile(t, "a:hover{color:blue;} a{color:red;}", Options{Global: true})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if !strings.Contains(res.Sheets[0], ":hover") {
		t.Errorf("global branch reordered rules: %v", res.Sheets)
	}
}

func TestCompile_GlobalWrapperDependsOnContent(t *testing.T) {
	a := compile(t, "color:red;", Options{Global: true})
	b := compile(t, "color:blue;", Options{Global: true})
	c := compile(t, "color:red;", Options{Global: true})

	if a.ClassNames[0] == b.ClassNames[0] {
		t.Error("different content must produce different wrapper names")
	}
	if a.ClassNames[0] != c.ClassNames[0] {
		t.Error("same content must produce the same wrapper name")
	}
}

func TestCompile_Conditionals(t *testing.T) {
	res := compile(t, "color:blue; div{", Options{Conditionals: []string{"color:red;"}})

	if len(res.ConditionalClassNames) != 1 || len(res.ConditionalClassNames[0]) != 1 {
		t.Fatalf("conditional class names = %v, want one name for one fragment", res.ConditionalClassNames)
	}
	name := res.ConditionalClassNames[0][0]

	found := false
	for _, s := range res.Sheets {
		if s == "."+name+" div{color:red}" {
			found = true
		}
	}
	if !found {
		t.Errorf("no sheet nests the conditional under the open div block: %v", res.Sheets)
	}

	// the unconditional declaration still compiles on its own
	if len(res.ClassNames) != 1 {
		t.Errorf("unconditional class names = %v, want 1", res.ClassNames)
	}
}

func TestCompile_ConditionalsNotDeduplicated(t *testing.T) {
	// identical triples on both paths must stay separate: the conditional
	// class is gated behind its expression
	res := compile(t, "color:red;", Options{Conditionals: []string{"color:red;"}})

	if len(res.Sheets) != 2 {
		t.Fatalf("got %d sheets, want 2: %v", len(res.Sheets), res.Sheets)
	}
	if len(res.ClassNames) != 1 || len(res.ConditionalClassNames[0]) != 1 {
		t.Fatalf("class names = %v / %v, want one on each path", res.ClassNames, res.ConditionalClassNames)
	}
}

func TestCompile_UnbalancedWithoutConditionalsFails(t *testing.T) {
	// the open block is tolerated only as conditional nesting context
	if _, err := NewCompiler(zap.NewNop()).Compile("color:blue; div{", Options{}); err == nil {
		t.Fatal("expected parse error when no conditionals are supplied")
	}
}

func TestCompile_TraceSeesEveryPass(t *testing.T) {
	var passes []string
	opts := Options{
		OptimizeCSS: true,
		Trace:       func(pass, _ string) { passes = append(passes, pass) },
	}
	compile(t, "color:red;", opts)

	want := []string{"normalize", "unwrap", "atomize", "sort", "finish", "extract"}
	if !reflect.DeepEqual(passes, want) {
		t.Errorf("traced passes = %v, want %v", passes, want)
	}
}
