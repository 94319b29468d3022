// Package htmlgen renders page templates with the built bundles injected.
package htmlgen

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Injection is the set of tags added to a page's head.
type Injection struct {
	Scripts []string
	Styles  []string
	// StripComments drops HTML comments from the rendered page.
	StripComments bool
}

// Render parses the template read from r, appends module scripts followed by
// stylesheets to its head and writes the document to w.
func Render(r io.Reader, w io.Writer, inj Injection) error {
	doc, err := html.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	head := findElement(doc, atom.Head)
	if head == nil {
		// html.Parse always synthesises a head, this only guards odd documents
		root := findElement(doc, atom.Html)
		if root == nil {
			return fmt.Errorf("failed to locate document root")
		}
		head = &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
		root.InsertBefore(head, root.FirstChild)
	}

	for _, src := range inj.Scripts {
		head.AppendChild(scriptNode(src))
	}
	for _, href := range inj.Styles {
		head.AppendChild(stylesheetNode(href))
	}

	if inj.StripComments {
		stripComments(doc)
	}

	return html.Render(w, doc)
}

func scriptNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "type", Val: "module"},
			{Key: "src", Val: src},
		},
	}
}

func stylesheetNode(href string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "link",
		DataAtom: atom.Link,
		Attr: []html.Attribute{
			{Key: "href", Val: href},
			{Key: "rel", Val: "stylesheet"},
		},
	}
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

func stripComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripComments(c)
		}
		c = next
	}
}
