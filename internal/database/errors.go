package database

import "errors"

var (
	// ErrCategoryNotFound is returned when a subcategory or supplier names
	// a category slug that is not stored.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrSupplierNotFound is returned when a product names a supplier that
	// is not stored. The product is not written.
	ErrSupplierNotFound = errors.New("supplier not found")

	// ErrInvalidCandidate is returned for candidates missing their key.
	ErrInvalidCandidate = errors.New("candidate is missing its key")

	// ErrPersistence wraps failed writes. The transaction has been rolled back.
	ErrPersistence = errors.New("persistence failed")

	// ErrUnknownDialect is returned for an unsupported dialect name.
	ErrUnknownDialect = errors.New("unknown database dialect")
)
