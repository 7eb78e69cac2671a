// Package dom provides the queryable document handed from a renderer to the
// extractor.
//
// A Document wraps a goquery document together with the final URL of the
// page, so relative links can be resolved against it. The package also
// holds the small text helpers and the Strategy type used to express
// selector fallback chains: an ordered list of strategies where the first
// non-empty result wins.
package dom
