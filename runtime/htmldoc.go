package runtime

import (
	"errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"acss/common"
)

// HTMLDocument is the debug/inspectable style document: every bucket becomes
// a <style data-style-bucket="..."> element inside <head>, and rules are
// appended as raw text so developer tooling can see them. Cascade behavior
// is equivalent to MemoryDocument - only the representation differs.
type HTMLDocument struct {
	head *html.Node
}

type htmlPoint struct {
	style *html.Node
	text  *html.Node
}

func (p *htmlPoint) AppendRule(rule string) {
	p.text.Data += rule
}

// NewHTMLDocument wraps a parsed HTML tree. The tree must contain a <head>
// element (html.Parse always produces one for full documents).
func NewHTMLDocument(doc *html.Node) (*HTMLDocument, error) {
	head := findElement(doc, atom.Head)
	if head == nil {
		return nil, errors.New("html document has no <head> element")
	}
	return &HTMLDocument{head: head}, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func (d *HTMLDocument) NewInsertionPoint(b common.Bucket, next InsertionPoint) InsertionPoint {
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "data-style-bucket", Val: b.String()}},
	}
	text := &html.Node{Type: html.TextNode}
	style.AppendChild(text)

	if next != nil {
		d.head.InsertBefore(style, next.(*htmlPoint).style)
	} else {
		d.head.AppendChild(style)
	}
	return &htmlPoint{style: style, text: text}
}

// Buckets returns the buckets of the live <style> elements in document
// order.
func (d *HTMLDocument) Buckets() []common.Bucket {
	var out []common.Bucket
	for c := d.head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Style {
			continue
		}
		for _, a := range c.Attr {
			if a.Key == "data-style-bucket" {
				out = append(out, bucketByName(a.Val))
			}
		}
	}
	return out
}

// Rules returns the text of every managed <style> element in document
// order, one entry per element.
func (d *HTMLDocument) Rules() []string {
	var out []string
	for c := d.head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Style {
			continue
		}
		if c.FirstChild != nil {
			out = append(out, c.FirstChild.Data)
		}
	}
	return out
}

func bucketByName(name string) common.Bucket {
	for b := common.Bucket(0); int(b) < common.NumBuckets; b++ {
		if b.String() == name {
			return b
		}
	}
	return common.BucketCatchAll
}
