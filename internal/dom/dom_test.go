package dom

import (
	"testing"
)

const samplePage = `<html><body>
<h1 class="title">  Acme   Co  </h1>
<div class="empty"></div>
<div class="about"><p>First <b>part</b></p><script>var x = 1;</script><p>second</p></div>
<span class="phone">+7 700</span><span class="phone">000</span>
<a class="tel" href="tel:+77000000">call</a>
<a class="rel" href="/optom-odezhda/">Odezhda</a>
</body></html>`

func mustDoc(t *testing.T, pageURL, body string) *Document {
	t.Helper()
	doc, err := NewDocumentFromString(pageURL, body)
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

func TestResolve(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, "https://www.optoviki.kz/optom-odezhda/", samplePage)

	testCases := []struct {
		name     string
		href     string
		expected string
	}{
		{"absolute path", "/company/123", "https://www.optoviki.kz/company/123"},
		{"relative path", "platya/", "https://www.optoviki.kz/optom-odezhda/platya/"},
		{"absolute URL", "https://example.com/x", "https://example.com/x"},
		{"fragment stripped", "/a#top", "https://www.optoviki.kz/a"},
		{"fragment only", "#top", ""},
		{"empty", "  ", ""},
		{"javascript", "javascript:void(0)", ""},
		{"mailto", "mailto:a@b.kz", ""},
		{"tel", "tel:+7700", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := doc.Resolve(tc.href); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       string
		expected string
	}{
		{"https://www.optoviki.kz/optom-electronics", "optom-electronics"},
		{"https://www.optoviki.kz/optom-electronics/", "optom-electronics"},
		{"https://www.optoviki.kz/optom-odezhda/platya//", "platya"},
		{"https://www.optoviki.kz/", ""},
		{"https://www.optoviki.kz", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tc.in); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, "https://www.optoviki.kz/", samplePage)
	if !doc.SameHost("https://WWW.optoviki.kz/a") {
		t.Error("expected same host")
	}
	if doc.SameHost("https://example.com/a") {
		t.Error("expected different host")
	}
}

func TestTextHelpers(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, "https://www.optoviki.kz/", samplePage)

	t.Run("Text collapses whitespace", func(t *testing.T) {
		t.Parallel()
		if got := Text(doc.Find("h1")); got != "Acme Co" {
			t.Errorf("expected %q, got %q", "Acme Co", got)
		}
	})

	t.Run("Text skips empty matches", func(t *testing.T) {
		t.Parallel()
		if got := Text(doc.Find(".empty, h1")); got != "Acme Co" {
			t.Errorf("expected %q, got %q", "Acme Co", got)
		}
	})

	t.Run("JoinedText skips scripts", func(t *testing.T) {
		t.Parallel()
		if got := JoinedText(doc.Find(".about")); got != "First part second" {
			t.Errorf("expected %q, got %q", "First part second", got)
		}
	})

	t.Run("Clean normalizes to NFC", func(t *testing.T) {
		t.Parallel()
		// "\u0438\u0306" is "и" followed by a combining breve.
		if got := Clean("\u0438\u0306"); got != "\u0439" {
			t.Errorf("expected composed form, got %q", got)
		}
	})

	t.Run("Clean replaces control characters", func(t *testing.T) {
		t.Parallel()
		tests := map[string]string{
			"Acme\x1fCo":      "Acme Co",
			"\x00lead\x07":    "lead",
			"a\x1f\x1e\tb":    "a b",
			"x\u0085y\u007fz": "x y z",
		}
		for in, want := range tests {
			if got := Clean(in); got != want {
				t.Errorf("Clean(%q) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	doc := mustDoc(t, "https://www.optoviki.kz/", samplePage)
	root := doc.Selection()

	t.Run("first success wins", func(t *testing.T) {
		t.Parallel()
		got := FirstNonEmpty(root, TextOf(".missing"), TextOf("h1"), Fixed("fallback"))
		if got != "Acme Co" {
			t.Errorf("expected %q, got %q", "Acme Co", got)
		}
	})

	t.Run("fixed fallback", func(t *testing.T) {
		t.Parallel()
		got := FirstNonEmpty(root, append(TextChain(".missing", ".empty"), Fixed("Listing Name"))...)
		if got != "Listing Name" {
			t.Errorf("expected %q, got %q", "Listing Name", got)
		}
	})

	t.Run("all fail", func(t *testing.T) {
		t.Parallel()
		if got := FirstNonEmpty(root, TextOf(".missing")); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("joined text", func(t *testing.T) {
		t.Parallel()
		if got := FirstNonEmpty(root, JoinedTextOf(".phone")); got != "+7 700 000" {
			t.Errorf("expected %q, got %q", "+7 700 000", got)
		}
	})

	t.Run("attribute prefix", func(t *testing.T) {
		t.Parallel()
		got := FirstNonEmpty(root, AttrPrefix(`a[href^="tel:"]`, "href", "tel:"))
		if got != "+77000000" {
			t.Errorf("expected %q, got %q", "+77000000", got)
		}
	})

	t.Run("attribute chain", func(t *testing.T) {
		t.Parallel()
		got := FirstNonEmpty(root, AttrChain("href", "a.none", "a.rel")...)
		if got != "/optom-odezhda/" {
			t.Errorf("expected %q, got %q", "/optom-odezhda/", got)
		}
	})
}
