package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nao1215/optovka/internal/model"
)

// Pagination defaults for ListSuppliers.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// DefaultNewProductsLimit is the default size of ListNewProducts.
	DefaultNewProductsLimit = 10
)

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// ListSubcategories returns the subcategories of the category with
// categorySlug, ordered by name. An unknown slug yields an empty list.
func (s *Store) ListSubcategories(ctx context.Context, categorySlug string) ([]model.Subcategory, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT sc.id, sc.name, sc.slug, sc.category_id, sc.created_at
		FROM subcategories sc
		JOIN categories c ON c.id = sc.category_id
		WHERE c.slug = ?
		ORDER BY sc.name, sc.id`), categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer rows.Close()

	var out []model.Subcategory
	for rows.Next() {
		sc, err := scanSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// SupplierFilter selects suppliers for ListSuppliers. Empty fields do not
// filter. Search and City are case-insensitive substring matches.
type SupplierFilter struct {
	CategorySlug    string
	SubcategorySlug string
	Search          string
	City            string
	Page            int
	Limit           int
}

// normalize applies the pagination defaults and caps.
func (f SupplierFilter) normalize() SupplierFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// SupplierPage is one page of ListSuppliers.
type SupplierPage struct {
	Suppliers []model.Supplier `json:"suppliers"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

// likePattern builds a LIKE pattern matching folded substrings of term.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(fold(term))
	return "%" + escaped + "%"
}

// ListSuppliers returns the suppliers matching f, ordered by id.
func (s *Store) ListSuppliers(ctx context.Context, f SupplierFilter) (*SupplierPage, error) {
	f = f.normalize()

	var (
		where []string
		args  []any
	)
	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if f.SubcategorySlug != "" {
		where = append(where, "sc.slug = ?")
		args = append(args, f.SubcategorySlug)
	}
	if f.Search != "" {
		where = append(where, `s.name_folded LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Search))
	}
	if f.City != "" {
		where = append(where, `s.city_folded LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.City))
	}

	from := `
		FROM suppliers s
		JOIN categories c ON c.id = s.category_id
		LEFT JOIN subcategories sc ON sc.id = s.subcategory_id`
	if len(where) > 0 {
		from += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}

	page := &SupplierPage{Page: f.Page, Limit: f.Limit}
	if err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*)`+from), args...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}

	query := `SELECT ` + supplierColumns + from + `
		ORDER BY s.id
		LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		page.Suppliers = append(page.Suppliers, *sp)
	}
	return page, rows.Err()
}

// ListNewProducts returns up to limit products flagged as new, newest first.
func (s *Store) ListNewProducts(ctx context.Context, limit int) ([]model.Product, error) {
	if limit < 1 {
		limit = DefaultNewProductsLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, name, supplier_id, is_new, image_url, price, description, created_at
		FROM products
		WHERE is_new = ?
		ORDER BY id DESC
		LIMIT ?`), true, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var (
			p           model.Product
			imageURL    sql.NullString
			price       sql.NullString
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.SupplierID, &p.IsNew, &imageURL, &price, &description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.ImageURL = imageURL.String
		p.Price = price.String
		p.Description = description.String
		p.CreatedAt = parseTimestamp(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Counts returns the number of stored rows per entity kind.
func (s *Store) Counts(ctx context.Context) (map[model.EntityKind]int, error) {
	tables := map[model.EntityKind]string{
		model.KindCategory:    "categories",
		model.KindSubcategory: "subcategories",
		model.KindSupplier:    "suppliers",
		model.KindProduct:     "products",
	}
	out := make(map[model.EntityKind]int, len(tables))
	for kind, table := range tables {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		out[kind] = n
	}
	return out, nil
}
