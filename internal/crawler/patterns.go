package crawler

import (
	"net/url"
	"path"
	"strings"
)

// shouldFollow checks a target URL against the ignore and follow patterns.
//
//  1. If the path matches any ignore pattern, it is skipped.
//  2. If follow patterns are set and none matches, it is skipped.
//  3. Otherwise it is followed.
func shouldFollow(rawURL string, follow, ignore []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(follow) == 0 {
		return true
	}
	for _, pattern := range follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern reports whether a URL path matches a glob pattern.
//
//   - "/company/*" matches "/company/acme" and "/company/acme/goods"
//   - "*.pdf" matches "/files/price.pdf"
//   - "/goods/?" matches "/goods/1"
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(p, prefix+"/") || p == prefix {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}
	return false
}
