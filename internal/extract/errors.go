package extract

import "errors"

var (
	// ErrMissingName is returned when a detail page yields no name after
	// every fallback. No record is produced for the page.
	ErrMissingName = errors.New("no name found on page")

	// ErrNoItems marks a warning for a page that normally lists items but
	// yielded none. It is reported in Result.Warnings, never returned.
	ErrNoItems = errors.New("no items found on page")
)
