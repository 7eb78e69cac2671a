package model

import "time"

// Category is a top-level directory section such as "optom-odezhda".
// A category is created once per slug and never changed afterwards.
type Category struct {
	// ID is the database primary key.
	ID int64 `json:"id"`

	// Name is the anchor text the category was discovered with.
	Name string `json:"name"`

	// Slug is the last path segment of the category URL. It is unique.
	Slug string `json:"slug"`

	// ParentID is reserved for nested categories. The crawler never sets it.
	ParentID *int64 `json:"parent_id,omitempty"`

	// CreatedAt is when the row was inserted.
	CreatedAt time.Time `json:"created_at"`
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	CategoryID int64     `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Contacts is the structured contact block stored with a supplier.
// URL is empty for suppliers that only appeared on a listing page.
type Contacts struct {
	City  string `json:"city"`
	Phone string `json:"phone"`
	URL   string `json:"url"`
}

// Supplier is a company profile. Identity is the name: the first
// supplier stored under a name is kept and later writes are discarded.
type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID *int64    `json:"subcategory_id,omitempty"`
	Contacts      Contacts  `json:"contacts"`
	Hash          string    `json:"hash"`
	CreatedAt     time.Time `json:"created_at"`
}

// Product is an item offered by a supplier.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SupplierID  int64     `json:"supplier_id"`
	IsNew       bool      `json:"is_new"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       string    `json:"price,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
