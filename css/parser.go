// Package css parses author-written CSS fragments into an ordered rule tree
// and serializes rules back into minified, independently insertable strings.
//
// A fragment is more permissive than a stylesheet: bare declarations, nested
// rules and at-rules may appear at any level. The tdewolff lexer is used
// directly because its parser rejects that mix at the top level.
package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// ParseError is the only error kind surfaced by Parse. It carries the full
// offending input and the underlying diagnostic; no partial tree is ever
// returned alongside it.
type ParseError struct {
	Input string
	Cause error
}

func (e *ParseError) Error() string {
	return "css: parse failed: " + e.Cause.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Parser parses CSS fragments into structured stylesheets.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses a CSS fragment into a Stylesheet. The optional source
// parameter identifies what is being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	toks, err := lexAll(data)
	if err != nil {
		return nil, &ParseError{Input: string(data), Cause: err}
	}

	w := &walker{toks: toks, log: p.log}
	items, err := w.parseBlock(true)
	if err != nil {
		return nil, &ParseError{Input: string(data), Cause: err}
	}
	return &Stylesheet{Items: items}, nil
}

type token struct {
	tt   css.TokenType
	data string
}

// lexAll tokenizes the whole input up front, dropping comments. Strings are
// single opaque tokens, so braces inside string literals never affect
// nesting decisions later.
func lexAll(data []byte) ([]token, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(string(data))))
	var toks []token
	for {
		tt, d := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return toks, nil
		case css.CommentToken:
			continue
		case css.BadStringToken:
			return nil, errors.New("unterminated string literal")
		case css.BadURLToken:
			return nil, errors.New("unterminated url()")
		default:
			toks = append(toks, token{tt: tt, data: string(d)})
		}
	}
}

type walker struct {
	toks []token
	pos  int
	log  *zap.Logger
}

func (w *walker) eof() bool {
	return w.pos >= len(w.toks)
}

func (w *walker) skipFiller() {
	for !w.eof() {
		tt := w.toks[w.pos].tt
		if tt != css.WhitespaceToken && tt != css.SemicolonToken {
			return
		}
		w.pos++
	}
}

// parseBlock consumes declarations and rules until end of input (top level)
// or the closing brace of the enclosing rule.
func (w *walker) parseBlock(top bool) ([]Item, error) {
	var items []Item
	for {
		w.skipFiller()
		if w.eof() {
			if !top {
				return nil, errors.New("unexpected end of input: unbalanced braces")
			}
			return items, nil
		}
		if w.toks[w.pos].tt == css.RightBraceToken {
			if top {
				return nil, errors.New("unexpected '}'")
			}
			w.pos++
			return items, nil
		}

		seg, stop := w.segment()
		switch stop {
		case css.LeftBraceToken:
			selector := joinSelector(seg)
			if selector == "" {
				return nil, errors.New("rule block without a selector")
			}
			w.pos++ // consume '{'
			body, err := w.parseBlock(false)
			if err != nil {
				return nil, err
			}
			d, r := splitItems(body)
			rule := Rule{Selector: selector, Declarations: d, Rules: r}
			items = append(items, Item{Rule: &rule})
		default:
			if len(seg) > 0 && seg[0].tt == css.AtKeywordToken {
				// statement at-rule (@import and friends) - nothing the
				// author-facing surface produces, skip it
				w.log.Debug("Skipping statement at-rule", zap.String("rule", joinSelector(seg)))
				continue
			}
			if allWhitespace(seg) {
				continue
			}
			d, err := parseDeclaration(seg)
			if err != nil {
				return nil, err
			}
			items = append(items, Item{Declaration: &d})
		}
	}
}

// splitItems separates a rule body into declarations and nested rules,
// each keeping its own source order.
func splitItems(items []Item) ([]Declaration, []Rule) {
	var (
		decls []Declaration
		rules []Rule
	)
	for _, it := range items {
		if it.Declaration != nil {
			decls = append(decls, *it.Declaration)
		} else {
			rules = append(rules, *it.Rule)
		}
	}
	return decls, rules
}

// segment collects tokens up to the next '{', ';' or '}' at paren depth
// zero. The stop token itself is consumed only for ';'.
func (w *walker) segment() ([]token, css.TokenType) {
	depth := 0
	start := w.pos
	for !w.eof() {
		t := w.toks[w.pos]
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.LeftBraceToken, css.RightBraceToken:
			if depth == 0 {
				return w.toks[start:w.pos], t.tt
			}
		case css.SemicolonToken:
			if depth == 0 {
				seg := w.toks[start:w.pos]
				w.pos++
				return seg, css.SemicolonToken
			}
		}
		w.pos++
	}
	return w.toks[start:w.pos], css.ErrorToken
}

func parseDeclaration(seg []token) (Declaration, error) {
	colon := -1
	depth := 0
	for i, t := range seg {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.ColonToken:
			if depth == 0 {
				colon = i
			}
		}
		if colon >= 0 {
			break
		}
	}
	if colon < 0 {
		return Declaration{}, fmt.Errorf("declaration %q has no ':'", joinValue(seg))
	}

	prop := strings.ToLower(joinValue(seg[:colon]))
	if prop == "" || strings.ContainsAny(prop, " \t{}") {
		return Declaration{}, fmt.Errorf("malformed property name %q", prop)
	}

	value := seg[colon+1:]
	important := false
	if bang, ok := trailingImportant(value); ok {
		important = true
		value = value[:bang]
	}
	v := joinValue(value)
	if v == "" {
		return Declaration{}, fmt.Errorf("declaration %q has an empty value", prop)
	}
	return Declaration{Property: prop, Value: v, Important: important}, nil
}

// trailingImportant returns the index of the '!' token when the segment ends
// with "!important" (whitespace tolerated).
func trailingImportant(seg []token) (int, bool) {
	i := len(seg) - 1
	for i >= 0 && seg[i].tt == css.WhitespaceToken {
		i--
	}
	if i < 1 || seg[i].tt != css.IdentToken || !strings.EqualFold(seg[i].data, "important") {
		return 0, false
	}
	j := i - 1
	for j >= 0 && seg[j].tt == css.WhitespaceToken {
		j--
	}
	if j < 0 || seg[j].tt != css.DelimToken || seg[j].data != "!" {
		return 0, false
	}
	return j, true
}

func allWhitespace(seg []token) bool {
	for _, t := range seg {
		if t.tt != css.WhitespaceToken {
			return false
		}
	}
	return true
}

// joinSelector renders selector/prelude tokens, collapsing whitespace runs
// to a single space and dropping spaces after ':' and ','.
func joinSelector(seg []token) string {
	var sb strings.Builder
	squash := false
	for _, t := range seg {
		if t.tt == css.WhitespaceToken {
			if sb.Len() > 0 && !squash {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteString(t.data)
		squash = t.tt == css.ColonToken || t.tt == css.CommaToken
	}
	return strings.TrimSpace(sb.String())
}

// joinValue renders value tokens with whitespace runs collapsed to one space.
func joinValue(seg []token) string {
	var sb strings.Builder
	for _, t := range seg {
		if t.tt == css.WhitespaceToken {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.WriteString(t.data)
	}
	return strings.TrimSpace(sb.String())
}
