package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts one value from a selection. An empty result means
// "not found" and lets the next strategy in a chain run.
type Strategy func(root *goquery.Selection) string

// FirstNonEmpty evaluates the strategies in order and returns the first
// non-empty value. It returns "" when every strategy fails.
func FirstNonEmpty(root *goquery.Selection, strategies ...Strategy) string {
	for _, s := range strategies {
		if v := s(root); v != "" {
			return v
		}
	}
	return ""
}

// TextOf reads the text of the first non-empty element matching selector.
func TextOf(selector string) Strategy {
	return func(root *goquery.Selection) string {
		return Text(root.Find(selector))
	}
}

// TextChain builds one TextOf strategy per selector.
func TextChain(selectors ...string) []Strategy {
	out := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, TextOf(sel))
	}
	return out
}

// AttrOf reads attribute attr of the first matching element.
func AttrOf(selector, attr string) Strategy {
	return func(root *goquery.Selection) string {
		return Attr(root.Find(selector), attr)
	}
}

// AttrChain builds one AttrOf strategy per selector.
func AttrChain(attr string, selectors ...string) []Strategy {
	out := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, AttrOf(sel, attr))
	}
	return out
}

// JoinedTextOf joins the text of every element matching selector.
// It is used for values split over several nodes, such as phone numbers.
func JoinedTextOf(selector string) Strategy {
	return func(root *goquery.Selection) string {
		return JoinedText(root.Find(selector))
	}
}

// AttrPrefix reads an attribute and strips prefix from it.
// AttrPrefix(`a[href^="tel:"]`, "href", "tel:") yields the dialled number.
func AttrPrefix(selector, attr, prefix string) Strategy {
	return func(root *goquery.Selection) string {
		v := Attr(root.Find(selector), attr)
		if !strings.HasPrefix(strings.ToLower(v), strings.ToLower(prefix)) {
			return ""
		}
		return Clean(v[len(prefix):])
	}
}

// Fixed returns a strategy that always yields v. It ends a chain with a
// fallback value taken from elsewhere, such as a listing page.
func Fixed(v string) Strategy {
	return func(*goquery.Selection) string {
		return v
	}
}
