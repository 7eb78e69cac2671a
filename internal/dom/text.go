package dom

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Clean normalizes s to NFC, turns control characters into spaces and
// collapses runs of whitespace.
func Clean(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, norm.NFC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// Text returns the cleaned text of the first element in sel whose text
// is not empty.
func Text(sel *goquery.Selection) string {
	var out string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = Clean(s.Text())
		return out == ""
	})
	return out
}

// Attr returns the trimmed attribute of the first element in sel that
// carries a non-empty value for it.
func Attr(sel *goquery.Selection, name string) string {
	var out string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr(name)
		out = strings.TrimSpace(v)
		return out == ""
	})
	return out
}

// TextNodes returns every non-blank text node under sel, cleaned, in
// document order. Script and style contents are skipped.
func TextNodes(sel *goquery.Selection) []string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := Clean(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return parts
}

// JoinedText joins all text nodes under sel with single spaces.
func JoinedText(sel *goquery.Selection) string {
	return strings.Join(TextNodes(sel), " ")
}
