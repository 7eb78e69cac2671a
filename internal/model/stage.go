package model

// Stage is a node of the crawl state machine. Every queued Target is
// tagged with the stage that will process the fetched page.
type Stage int

const (
	// StageRoot is the directory front page listing all categories.
	StageRoot Stage = iota

	// StageCategory is a category page listing subcategories, or suppliers
	// directly when the category has no subcategories.
	StageCategory

	// StageSubcategory persists a subcategory found on a category page.
	// It never fetches; it hands over to StageSupplierListing.
	StageSubcategory

	// StageSupplierListing is a page of supplier list items.
	StageSupplierListing

	// StageSupplierDetail is a supplier profile page.
	StageSupplierDetail

	// StageProductListing is the "all goods" page of one supplier.
	StageProductListing

	// StageProductDetail is a single product page. It is terminal.
	StageProductDetail
)

// String returns the stage name used in logs, reports and dump file names.
func (s Stage) String() string {
	switch s {
	case StageRoot:
		return "root"
	case StageCategory:
		return "category"
	case StageSubcategory:
		return "subcategory"
	case StageSupplierListing:
		return "supplier-listing"
	case StageSupplierDetail:
		return "supplier-detail"
	case StageProductListing:
		return "product-listing"
	case StageProductDetail:
		return "product-detail"
	default:
		return "unknown"
	}
}

// Fetches reports whether processing the stage starts with a page fetch.
func (s Stage) Fetches() bool {
	return s != StageSubcategory
}
