package model

// TraversalContext is the branch state carried by a queued Target.
// It is a value type: the With* methods return modified copies and never
// touch the receiver, so sibling branches cannot observe each other.
type TraversalContext struct {
	// CategorySlug identifies the category the branch belongs to.
	CategorySlug string `json:"category_slug,omitempty"`

	// SubcategorySlug is empty when the branch has no subcategory.
	SubcategorySlug string `json:"subcategory_slug,omitempty"`

	// SupplierName is the resolved supplier name for product branches.
	SupplierName string `json:"supplier_name,omitempty"`

	// Listing holds the values read from the supplier listing item.
	// The detail page falls back to them.
	Listing ListingFallback `json:"listing,omitzero"`
}

// ListingFallback holds the supplier fields seen on a listing page.
type ListingFallback struct {
	Name  string `json:"name,omitempty"`
	City  string `json:"city,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// WithCategory returns a copy scoped to the given category.
// The subcategory and supplier fields are reset.
func (c TraversalContext) WithCategory(slug string) TraversalContext {
	return TraversalContext{CategorySlug: slug}
}

// WithSubcategory returns a copy scoped to the given subcategory.
func (c TraversalContext) WithSubcategory(slug string) TraversalContext {
	c.SubcategorySlug = slug
	return c
}

// WithListing returns a copy carrying listing fallback values.
func (c TraversalContext) WithListing(l ListingFallback) TraversalContext {
	c.Listing = l
	return c
}

// WithSupplier returns a copy scoped to the given supplier.
func (c TraversalContext) WithSupplier(name string) TraversalContext {
	c.SupplierName = name
	return c
}

// Target is a queued unit of work: a URL to process at a given stage.
type Target struct {
	Stage   Stage            `json:"stage"`
	URL     string           `json:"url"`
	Context TraversalContext `json:"context"`
}
