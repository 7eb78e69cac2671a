package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nao1215/optovka/internal/model"
	"golang.org/x/text/cases"
)

// folder maps text to its case-folded form for search columns.
// SQLite's LOWER only folds ASCII; Cyrillic names need full folding.
var folder = cases.Fold()

func fold(s string) string {
	return folder.String(s)
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const categoryColumns = `id, name, slug, parent_id, created_at`

func scanCategory(row scanner) (*model.Category, error) {
	var (
		c         model.Category
		parentID  sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &parentID, &createdAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	c.CreatedAt = parseTimestamp(createdAt)
	return &c, nil
}

// CategoryBySlug returns the category with slug, or nil if none exists.
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+categoryColumns+` FROM categories WHERE slug = ?`), slug)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ResolveCategory inserts the category unless its slug is already stored,
// then returns the stored row. Calling it twice with the same slug yields
// the same id; created is true only for the call that inserted it.
func (s *Store) ResolveCategory(ctx context.Context, c model.CategoryCandidate) (*model.Category, bool, error) {
	if c.Slug == "" {
		return nil, false, fmt.Errorf("%w: category slug", ErrInvalidCandidate)
	}

	var created bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO categories (name, slug) VALUES (?, ?) ON CONFLICT(slug) DO NOTHING`),
			c.Name, c.Slug)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n > 0
		return err
	})
	if err != nil {
		return nil, false, err
	}

	stored, err := s.CategoryBySlug(ctx, c.Slug)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("%w: category %q vanished after insert", ErrPersistence, c.Slug)
	}
	return stored, created, nil
}

const subcategoryColumns = `id, name, slug, category_id, created_at`

func scanSubcategory(row scanner) (*model.Subcategory, error) {
	var (
		sc        model.Subcategory
		createdAt string
	)
	if err := row.Scan(&sc.ID, &sc.Name, &sc.Slug, &sc.CategoryID, &createdAt); err != nil {
		return nil, err
	}
	sc.CreatedAt = parseTimestamp(createdAt)
	return &sc, nil
}

// SubcategoryBySlug returns the subcategory with slug, or nil if none exists.
func (s *Store) SubcategoryBySlug(ctx context.Context, slug string) (*model.Subcategory, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+subcategoryColumns+` FROM subcategories WHERE slug = ?`), slug)
	sc, err := scanSubcategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}
	return sc, nil
}

// ResolveSubcategory inserts the subcategory under its parent unless the
// slug is already stored, then returns the stored row. A missing parent
// yields ErrCategoryNotFound and nothing is written.
func (s *Store) ResolveSubcategory(ctx context.Context, c model.SubcategoryCandidate) (*model.Subcategory, bool, error) {
	if c.Slug == "" {
		return nil, false, fmt.Errorf("%w: subcategory slug", ErrInvalidCandidate)
	}

	parent, err := s.CategoryBySlug(ctx, c.CategorySlug)
	if err != nil {
		return nil, false, err
	}
	if parent == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrCategoryNotFound, c.CategorySlug)
	}

	var created bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO subcategories (name, slug, category_id) VALUES (?, ?, ?) ON CONFLICT(slug) DO NOTHING`),
			c.Name, c.Slug, parent.ID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n > 0
		return err
	})
	if err != nil {
		return nil, false, err
	}

	stored, err := s.SubcategoryBySlug(ctx, c.Slug)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("%w: subcategory %q vanished after insert", ErrPersistence, c.Slug)
	}
	return stored, created, nil
}

const supplierColumns = `s.id, s.name, s.description, s.image_url, s.category_id, s.subcategory_id, s.contacts, s.hash, s.created_at`

func scanSupplier(row scanner) (*model.Supplier, error) {
	var (
		sp            model.Supplier
		description   sql.NullString
		imageURL      sql.NullString
		subcategoryID sql.NullInt64
		contacts      []byte
		createdAt     string
	)
	err := row.Scan(&sp.ID, &sp.Name, &description, &imageURL, &sp.CategoryID,
		&subcategoryID, &contacts, &sp.Hash, &createdAt)
	if err != nil {
		return nil, err
	}
	sp.Description = description.String
	sp.ImageURL = imageURL.String
	if subcategoryID.Valid {
		sp.SubcategoryID = &subcategoryID.Int64
	}
	if len(contacts) > 0 {
		if err := json.Unmarshal(contacts, &sp.Contacts); err != nil {
			return nil, fmt.Errorf("failed to decode contacts: %w", err)
		}
	}
	sp.CreatedAt = parseTimestamp(createdAt)
	return &sp, nil
}

// SupplierByName returns the supplier stored under name, or nil.
func (s *Store) SupplierByName(ctx context.Context, name string) (*model.Supplier, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+supplierColumns+` FROM suppliers s WHERE s.name = ?`), name)
	sp, err := scanSupplier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return sp, nil
}

// UpsertSupplier stores the supplier unless one with the same name exists.
// An existing row is returned untouched with created=false; the first
// write wins and later candidates are discarded, not merged.
//
// The category must be stored (ErrCategoryNotFound otherwise). The
// subcategory is linked only when it is stored under that same category.
func (s *Store) UpsertSupplier(ctx context.Context, c model.SupplierCandidate) (*model.Supplier, bool, error) {
	if c.Name == "" {
		return nil, false, fmt.Errorf("%w: supplier name", ErrInvalidCandidate)
	}

	existing, err := s.SupplierByName(ctx, c.Name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	category, err := s.CategoryBySlug(ctx, c.CategorySlug)
	if err != nil {
		return nil, false, err
	}
	if category == nil {
		return nil, false, fmt.Errorf("%w: %q", ErrCategoryNotFound, c.CategorySlug)
	}

	var subcategoryID sql.NullInt64
	if c.SubcategorySlug != "" {
		sub, err := s.SubcategoryBySlug(ctx, c.SubcategorySlug)
		if err != nil {
			return nil, false, err
		}
		if sub != nil && sub.CategoryID == category.ID {
			subcategoryID = sql.NullInt64{Int64: sub.ID, Valid: true}
		}
	}

	contacts, err := json.Marshal(c.Contacts())
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode contacts: %w", err)
	}

	var created bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO suppliers (name, name_folded, description, image_url, category_id,
				subcategory_id, contacts, city_folded, hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO NOTHING`),
			c.Name, fold(c.Name), nullString(c.Description), nullString(c.ImageURL), category.ID,
			subcategoryID, string(contacts), fold(c.City), c.Fingerprint())
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	stored, err := s.SupplierByName(ctx, c.Name)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("%w: supplier %q vanished after insert", ErrPersistence, c.Name)
	}
	return stored, created, nil
}

// UpsertProduct stores the product under the supplier named in the
// candidate. It returns ErrSupplierNotFound, writing nothing, when that
// supplier is not stored. A product already stored for the supplier under
// the same name is kept and created is false.
func (s *Store) UpsertProduct(ctx context.Context, c model.ProductCandidate) (bool, error) {
	if c.Name == "" {
		return false, fmt.Errorf("%w: product name", ErrInvalidCandidate)
	}

	var supplierID int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id FROM suppliers WHERE name = ?`), c.SupplierName).Scan(&supplierID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%w: %q", ErrSupplierNotFound, c.SupplierName)
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up supplier: %w", err)
	}

	var created bool
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO products (name, supplier_id, is_new, image_url, price, description)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(supplier_id, name) DO NOTHING`),
			c.Name, supplierID, true, nullString(c.ImageURL), nullString(c.Price), nullString(c.Description))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0
		return nil
	})
	return created, err
}
