package runtime_test

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"acss/common"
	"acss/runtime"
)

func TestClassifySheet(t *testing.T) {
	cases := []struct {
		sheet string
		want  common.Bucket
	}{
		{"._a{color:red}", common.BucketCatchAll},
		{"._a:link{color:red}", common.BucketLink},
		{"._a:visited{color:red}", common.BucketVisited},
		{"._a:focus-within{color:red}", common.BucketFocusWithin},
		{"._a:focus{color:red}", common.BucketFocus},
		{"._a:focus-visible{color:red}", common.BucketFocusVisible},
		{"._a:hover{color:red}", common.BucketHover},
		{"._a:active{color:red}", common.BucketActive},
		{"@media screen{._a{color:red}}", common.BucketAtRule},
		{"  @supports (display:grid){._a{color:red}}", common.BucketAtRule},
		// class token length must not matter
		{".x:hover{color:red}", common.BucketHover},
		{"._averylongtoken1234:hover{color:red}", common.BucketHover},
		// unknown pseudo-classes degrade to catch-all
		{"._a:first-child{color:red}", common.BucketCatchAll},
		{"._a::before{content:'x:hover'}", common.BucketCatchAll},
		{"garbage", common.BucketCatchAll},
	}
	for _, tc := range cases {
		if got := runtime.ClassifySheet(tc.sheet); got != tc.want {
			t.Errorf("ClassifySheet(%q) = %v, want %v", tc.sheet, got, tc.want)
		}
	}
}

func TestRegistry_BucketOrderIndependentOfArrival(t *testing.T) {
	// hover arrives first, catch-all second - the document must still put
	// catch-all before hover
	doc := runtime.NewMemoryDocument()
	reg := runtime.NewRegistry(doc, zap.NewNop())

	reg.ApplySheet("._a:hover{color:blue}")
	reg.ApplySheet("._b{color:red}")

	want := []common.Bucket{common.BucketCatchAll, common.BucketHover}
	if got := doc.Buckets(); !reflect.DeepEqual(got, want) {
		t.Errorf("Buckets() = %v, want %v", got, want)
	}
	wantRules := []string{"._b{color:red}", "._a:hover{color:blue}"}
	if got := doc.Rules(); !reflect.DeepEqual(got, wantRules) {
		t.Errorf("Rules() = %v, want %v", got, wantRules)
	}
}

func TestRegistry_FullBucketOrder(t *testing.T) {
	sheets := []string{
		"@media screen{._i{color:red}}",
		"._h:active{color:red}",
		"._g:hover{color:red}",
		"._f:focus-visible{color:red}",
		"._e:focus{color:red}",
		"._d:focus-within{color:red}",
		"._c:visited{color:red}",
		"._b:link{color:red}",
		"._a{color:red}",
	}

	doc := runtime.NewMemoryDocument()
	reg := runtime.NewRegistry(doc, zap.NewNop())
	for _, s := range sheets {
		reg.ApplySheet(s)
	}

	got := doc.Buckets()
	if len(got) != common.NumBuckets {
		t.Fatalf("got %d buckets, want %d", len(got), common.NumBuckets)
	}
	for i := range got {
		if got[i] != common.Bucket(i) {
			t.Fatalf("Buckets() = %v, want strictly increasing order", got)
		}
	}

	// reversed arrival: rules land back in bucket order
	rules := doc.Rules()
	for i, want := range []string{"._a{", "._b:link", "._c:visited", "._d:focus-within",
		"._e:focus{", "._f:focus-visible", "._g:hover", "._h:active", "@media"} {
		if !strings.HasPrefix(rules[i], want) {
			t.Errorf("rule %d = %q, want prefix %q", i, rules[i], want)
		}
	}
}

func TestRegistry_Idempotent(t *testing.T) {
	doc := runtime.NewMemoryDocument()
	reg := runtime.NewRegistry(doc, zap.NewNop())

	reg.ApplySheet("._a{color:red}")
	reg.ApplySheet("._a{color:red}")
	reg.ApplySheet("._b{color:blue}")
	reg.ApplySheet("._a{color:red}")

	want := []string{"._a{color:red}", "._b{color:blue}"}
	if got := doc.Rules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Rules() = %v, want %v", got, want)
	}
}

func TestRegistry_AppendWithinBucket(t *testing.T) {
	doc := runtime.NewMemoryDocument()
	reg := runtime.NewRegistry(doc, zap.NewNop())

	reg.ApplySheet("._a{color:red}")
	reg.ApplySheet("._b{color:blue}")

	want := []string{"._a{color:red}", "._b{color:blue}"}
	if got := doc.Rules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Rules() = %v, want arrival order within one bucket", got)
	}
}

func parseHTML(t *testing.T) *html.Node {
	t.Helper()
	tree, err := html.Parse(strings.NewReader("<html><head><title>x</title></head><body></body></html>"))
	if err != nil {
		t.Fatalf("html.Parse error = %v", err)
	}
	return tree
}

func TestHTMLDocument_MatchesMemoryDocument(t *testing.T) {
	sheets := []string{
		"._c:active{color:green}",
		"._a{color:red}",
		"@media screen{._d{color:black}}",
		"._b:hover{color:blue}",
	}

	mem := runtime.NewMemoryDocument()
	memReg := runtime.NewRegistry(mem, zap.NewNop())

	hdoc, err := runtime.NewHTMLDocument(parseHTML(t))
	if err != nil {
		t.Fatalf("NewHTMLDocument error = %v", err)
	}
	htmlReg := runtime.NewRegistry(hdoc, zap.NewNop())

	for _, s := range sheets {
		memReg.ApplySheet(s)
		htmlReg.ApplySheet(s)
	}

	if !reflect.DeepEqual(mem.Buckets(), hdoc.Buckets()) {
		t.Errorf("bucket order differs: memory %v, html %v", mem.Buckets(), hdoc.Buckets())
	}
	if !reflect.DeepEqual(mem.Rules(), hdoc.Rules()) {
		t.Errorf("rule order differs:\nmemory %v\nhtml   %v", mem.Rules(), hdoc.Rules())
	}
}

func TestHTMLDocument_StyleElements(t *testing.T) {
	tree := parseHTML(t)
	hdoc, err := runtime.NewHTMLDocument(tree)
	if err != nil {
		t.Fatalf("NewHTMLDocument error = %v", err)
	}
	reg := runtime.NewRegistry(hdoc, zap.NewNop())

	reg.ApplySheet("._a:hover{color:blue}")
	reg.ApplySheet("._b{color:red}")

	var sb strings.Builder
	if err := html.Render(&sb, tree); err != nil {
		t.Fatalf("Render error = %v", err)
	}
	out := sb.String()

	catchAll := strings.Index(out, `<style data-style-bucket="catch-all">._b{color:red}</style>`)
	hover := strings.Index(out, `<style data-style-bucket="hover">._a:hover{color:blue}</style>`)
	if catchAll < 0 || hover < 0 {
		t.Fatalf("rendered document lacks expected style elements:\n%s", out)
	}
	if catchAll > hover {
		t.Error("catch-all style element must precede hover")
	}
}

func TestHTMLDocument_NoHead(t *testing.T) {
	// a bare fragment node without head
	if _, err := runtime.NewHTMLDocument(&html.Node{Type: html.ElementNode}); err == nil {
		t.Fatal("expected error for a document without <head>")
	}
}
