package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Rule extracts an optional text value from a document. ok is false when
// the rule matched nothing usable.
type Rule func(doc *goquery.Document) (text string, ok bool)

var anyElement = cascadia.MustCompile("*")

// OwnText matches selector and returns the first non-blank text node that
// is a direct child of a matched element, in document order, trimmed.
// It panics if selector does not compile.
func OwnText(selector string) Rule {
	m := cascadia.MustCompile(selector)
	return func(doc *goquery.Document) (string, bool) {
		return firstOwnText(doc, doc.FindMatcher(m))
	}
}

// DescendantText is like OwnText but considers the text of every element
// nested inside a match rather than the match's own text.
func DescendantText(selector string) Rule {
	m := cascadia.MustCompile(selector)
	return func(doc *goquery.Document) (string, bool) {
		return firstOwnText(doc, doc.FindMatcher(m).FindMatcher(anyElement))
	}
}

// Chain evaluates rules left to right and returns the first hit.
func Chain(rules ...Rule) Rule {
	return func(doc *goquery.Document) (string, bool) {
		for _, r := range rules {
			if text, ok := r(doc); ok {
				return text, true
			}
		}
		return "", false
	}
}

// Apply runs r against doc and returns nil when it misses.
func Apply(r Rule, doc *goquery.Document) *string {
	if r == nil || doc == nil {
		return nil
	}
	text, ok := r(doc)
	if !ok {
		return nil
	}
	return &text
}

// firstOwnText walks the document in order and returns the first
// non-blank text node whose parent is one of the selected elements.
func firstOwnText(doc *goquery.Document, sel *goquery.Selection) (string, bool) {
	if sel.Length() == 0 {
		return "", false
	}
	parents := make(map[*html.Node]struct{}, sel.Length())
	for _, n := range sel.Nodes {
		parents[n] = struct{}{}
	}

	for _, root := range doc.Nodes {
		if text, ok := walkText(root, parents); ok {
			return text, true
		}
	}
	return "", false
}

func walkText(n *html.Node, parents map[*html.Node]struct{}) (string, bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if _, ok := parents[n]; ok {
				if text := strings.TrimSpace(c.Data); text != "" {
					return text, true
				}
			}
			continue
		}
		if text, ok := walkText(c, parents); ok {
			return text, true
		}
	}
	return "", false
}
