// Package render fetches pages and hands them over as dom.Documents.
//
// Two renderers implement the Renderer interface:
//   - Chrome drives a headless Chrome through chromedp. optoviki.kz builds
//     its listings with JavaScript, so this is the default.
//   - HTTP issues plain GET requests, optionally through a SOCKS5 proxy.
//     It suits static mirrors and tests.
//
// Failures are reported as *FetchError, which tells the caller whether a
// retry may help. Retry and pacing policy belong to the caller.
package render
