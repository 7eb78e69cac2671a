package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// CategoryCandidate is a category found on the root page.
type CategoryCandidate struct {
	Name string
	Slug string
}

// SubcategoryCandidate is a subcategory found on a category page.
// CategorySlug names the owning category, which must already be stored.
type SubcategoryCandidate struct {
	Name         string
	Slug         string
	CategorySlug string
}

// SupplierCandidate is a supplier assembled from a listing item and,
// when the item had a detail link, from the detail page.
// Empty strings mean the field was not found on the page.
type SupplierCandidate struct {
	Name            string
	URL             string
	City            string
	Phone           string
	Description     string
	ImageURL        string
	CategorySlug    string
	SubcategorySlug string
}

// Contacts returns the contact block stored with the supplier.
func (c SupplierCandidate) Contacts() Contacts {
	return Contacts{City: c.City, Phone: c.Phone, URL: c.URL}
}

// Fingerprint returns the content hash of the supplier's identity fields.
func (c SupplierCandidate) Fingerprint() string {
	return Fingerprint(c.Name, c.URL, c.City, c.Phone)
}

// ProductCandidate is a product found on a supplier page, a goods listing
// or a product detail page. SupplierName is used to look up the owner.
type ProductCandidate struct {
	Name         string
	SupplierName string
	ImageURL     string
	Price        string
	Description  string
}

// fingerprintSeparator joins the hashed fields. dom.Clean turns control
// characters in extracted text into spaces, so ("a-b", "c") and
// ("a", "b-c") hash differently.
const fingerprintSeparator = "\x1f"

// Fingerprint returns a deterministic hex digest of the given fields.
// The same fields always yield the same value, across runs and processes.
func Fingerprint(fields ...string) string {
	sum := sha3.Sum256([]byte(strings.Join(fields, fingerprintSeparator)))
	return hex.EncodeToString(sum[:])
}
