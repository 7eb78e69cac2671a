package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nao1215/optovka/internal/model"
)

func TestResolveCategory(t *testing.T) {
	t.Parallel()

	t.Run("idempotent by slug", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()

		first, created, err := s.ResolveCategory(ctx, model.CategoryCandidate{Name: "Electronics", Slug: "optom-electronics"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Error("expected first resolution to create the row")
		}
		second, created, err := s.ResolveCategory(ctx, model.CategoryCandidate{Name: "Renamed", Slug: "optom-electronics"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created {
			t.Error("expected second resolution to find the stored row")
		}
		if first.ID != second.ID {
			t.Errorf("expected same id, got %d and %d", first.ID, second.ID)
		}
		if second.Name != "Electronics" {
			t.Errorf("expected first name to be kept, got %q", second.Name)
		}
		if first.CreatedAt.IsZero() {
			t.Error("expected created_at to be parsed")
		}
	})

	t.Run("concurrent resolution yields one row", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		ids := make([]int64, 8)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c, _, err := s.ResolveCategory(ctx, model.CategoryCandidate{Name: "Shoes", Slug: "optom-obuv"})
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				ids[i] = c.ID
			}(i)
		}
		wg.Wait()

		for _, id := range ids[1:] {
			if id != ids[0] {
				t.Errorf("expected all ids equal, got %v", ids)
				break
			}
		}
		counts, err := s.Counts(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counts[model.KindCategory] != 1 {
			t.Errorf("expected 1 category, got %d", counts[model.KindCategory])
		}
	})

	t.Run("empty slug", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		_, _, err := s.ResolveCategory(context.Background(), model.CategoryCandidate{Name: "x"})
		if !errors.Is(err, ErrInvalidCandidate) {
			t.Errorf("expected ErrInvalidCandidate, got %v", err)
		}
	})
}

func TestResolveSubcategory(t *testing.T) {
	t.Parallel()

	t.Run("created under parent", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		parent := seedCategory(t, s, "optom-odezhda")

		sc, _, err := s.ResolveSubcategory(context.Background(), model.SubcategoryCandidate{
			Name: "Платья", Slug: "platya", CategorySlug: "optom-odezhda",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sc.CategoryID != parent.ID || sc.Name != "Платья" {
			t.Errorf("unexpected subcategory: %+v", sc)
		}

		again, created, err := s.ResolveSubcategory(context.Background(), model.SubcategoryCandidate{
			Name: "Other", Slug: "platya", CategorySlug: "optom-odezhda",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created {
			t.Error("expected existing subcategory")
		}
		if again.ID != sc.ID {
			t.Errorf("expected same id, got %d and %d", sc.ID, again.ID)
		}
	})

	t.Run("missing parent creates no orphan", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()

		sc, _, err := s.ResolveSubcategory(ctx, model.SubcategoryCandidate{
			Name: "Orphan", Slug: "orphan", CategorySlug: "optom-missing",
		})
		if !errors.Is(err, ErrCategoryNotFound) {
			t.Fatalf("expected ErrCategoryNotFound, got %v", err)
		}
		if sc != nil {
			t.Errorf("expected nil subcategory, got %+v", sc)
		}
		stored, err := s.SubcategoryBySlug(ctx, "orphan")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stored != nil {
			t.Error("expected no orphan row")
		}
	})
}

func TestUpsertSupplier(t *testing.T) {
	t.Parallel()

	t.Run("first write wins", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()
		seedCategory(t, s, "optom-electronics")

		first := model.SupplierCandidate{
			Name:         "Acme Co LLC",
			URL:          "https://www.optoviki.kz/company/123",
			City:         "Almaty",
			Phone:        "+7 700 000",
			Description:  "Wholesale",
			CategorySlug: "optom-electronics",
		}
		stored, created, err := s.UpsertSupplier(ctx, first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !created {
			t.Error("expected first upsert to create")
		}
		if stored.Hash != model.Fingerprint("Acme Co LLC", "https://www.optoviki.kz/company/123", "Almaty", "+7 700 000") {
			t.Errorf("unexpected hash %q", stored.Hash)
		}
		if stored.Contacts != (model.Contacts{City: "Almaty", Phone: "+7 700 000", URL: "https://www.optoviki.kz/company/123"}) {
			t.Errorf("unexpected contacts %+v", stored.Contacts)
		}

		second := first
		second.City = "Astana"
		second.Phone = "+7 777 777"
		second.Description = "Richer text"
		again, created, err := s.UpsertSupplier(ctx, second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created {
			t.Error("expected second upsert not to create")
		}
		if again.ID != stored.ID || again.Contacts.City != "Almaty" || again.Description != "Wholesale" || again.Hash != stored.Hash {
			t.Errorf("expected stored row untouched, got %+v", again)
		}
	})

	t.Run("missing category", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		_, _, err := s.UpsertSupplier(context.Background(), model.SupplierCandidate{Name: "X", CategorySlug: "optom-none"})
		if !errors.Is(err, ErrCategoryNotFound) {
			t.Errorf("expected ErrCategoryNotFound, got %v", err)
		}
	})

	t.Run("subcategory linked only under its own category", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()
		seedCategory(t, s, "optom-a")
		seedCategory(t, s, "optom-b")
		sub, _, err := s.ResolveSubcategory(ctx, model.SubcategoryCandidate{Name: "Sub", Slug: "sub-a", CategorySlug: "optom-a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		linked, _, err := s.UpsertSupplier(ctx, model.SupplierCandidate{Name: "Linked", CategorySlug: "optom-a", SubcategorySlug: "sub-a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if linked.SubcategoryID == nil || *linked.SubcategoryID != sub.ID {
			t.Errorf("expected subcategory %d, got %v", sub.ID, linked.SubcategoryID)
		}

		mismatched, _, err := s.UpsertSupplier(ctx, model.SupplierCandidate{Name: "Mismatched", CategorySlug: "optom-b", SubcategorySlug: "sub-a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mismatched.SubcategoryID != nil {
			t.Errorf("expected no subcategory, got %d", *mismatched.SubcategoryID)
		}
	})

	t.Run("listing-only supplier has empty url", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		seedCategory(t, s, "optom-a")
		sp, _, err := s.UpsertSupplier(context.Background(), model.SupplierCandidate{Name: "Listing", City: "Astana", CategorySlug: "optom-a"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sp.Contacts.URL != "" || sp.Description != "" || sp.ImageURL != "" {
			t.Errorf("unexpected supplier %+v", sp)
		}
	})
}

func TestUpsertProduct(t *testing.T) {
	t.Parallel()

	t.Run("missing supplier drops product", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()

		created, err := s.UpsertProduct(ctx, model.ProductCandidate{Name: "Phone", SupplierName: "Nobody"})
		if !errors.Is(err, ErrSupplierNotFound) {
			t.Fatalf("expected ErrSupplierNotFound, got %v", err)
		}
		if created {
			t.Error("expected no product")
		}
		counts, err := s.Counts(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if counts[model.KindProduct] != 0 {
			t.Errorf("expected no products, got %d", counts[model.KindProduct])
		}
	})

	t.Run("stored once per supplier and name", func(t *testing.T) {
		t.Parallel()
		s := setupTestDB(t)
		ctx := context.Background()
		seedCategory(t, s, "optom-a")
		if _, _, err := s.UpsertSupplier(ctx, model.SupplierCandidate{Name: "Acme", CategorySlug: "optom-a"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		p := model.ProductCandidate{Name: "Phone", SupplierName: "Acme", Price: "15000", ImageURL: "https://x/i.jpg"}
		created, err := s.UpsertProduct(ctx, p)
		if err != nil || !created {
			t.Fatalf("expected created product, got %v, %v", created, err)
		}
		created, err = s.UpsertProduct(ctx, p)
		if err != nil || created {
			t.Fatalf("expected duplicate to be skipped, got %v, %v", created, err)
		}

		products, err := s.ListNewProducts(ctx, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(products) != 1 {
			t.Fatalf("expected 1 product, got %d", len(products))
		}
		if !products[0].IsNew || products[0].Price != "15000" || products[0].Description != "" {
			t.Errorf("unexpected product %+v", products[0])
		}
	})
}
