package crawler

import (
	"context"
	"errors"

	"github.com/nao1215/optovka/internal/database"
	"github.com/nao1215/optovka/internal/dom"
	"github.com/nao1215/optovka/internal/extract"
	"github.com/nao1215/optovka/internal/model"
)

// process runs one target through its stage.
func (r *run) process(ctx context.Context, t model.Target) {
	if ctx.Err() != nil {
		return
	}
	doc, ok := r.load(ctx, t)
	if !ok {
		return
	}

	// Writes that started finish even when the crawl is cancelled.
	wctx := context.WithoutCancel(ctx)

	switch t.Stage {
	case model.StageRoot:
		r.root(wctx, t, doc)
	case model.StageCategory:
		r.category(wctx, t, doc)
	case model.StageSupplierListing:
		r.supplierListing(wctx, t, doc, r.extractor.SupplierListing(doc, t.Context))
	case model.StageSupplierDetail:
		r.supplierDetail(wctx, t, doc)
	case model.StageProductListing:
		r.productListing(wctx, t, doc)
	case model.StageProductDetail:
		r.productDetail(wctx, t, doc)
	default:
		r.logger.Warn("target with a non-fetching stage", "stage", t.Stage.String(), "url", t.URL)
	}
}

// warn records the extraction warnings of a page and dumps it.
func (r *run) warn(t model.Target, doc *dom.Document, warnings []error) {
	if len(warnings) == 0 {
		return
	}
	for _, w := range warnings {
		r.logger.Warn("page yielded no items", "stage", t.Stage.String(), "url", t.URL, "detail", w)
	}
	r.record(func(s *model.CrawlSummary) { s.Warnings += len(warnings) })
	r.dump(t, doc)
}

func (r *run) root(ctx context.Context, t model.Target, doc *dom.Document) {
	res := r.extractor.Root(doc)
	r.warn(t, doc, res.Warnings)

	stored := make(map[string]bool, len(res.Categories))
	for _, c := range res.Categories {
		_, created, err := r.store.ResolveCategory(ctx, c)
		r.count(model.KindCategory, created, err)
		if err != nil {
			r.logger.Warn("failed to store category", "slug", c.Slug, "error", err)
			continue
		}
		stored[c.Slug] = true
	}

	for _, next := range res.Targets {
		if stored[next.Context.CategorySlug] {
			r.enqueue(next)
		}
	}
	r.logger.Info("categories found", "count", len(res.Categories), "stored", len(stored))
}

func (r *run) category(ctx context.Context, t model.Target, doc *dom.Document) {
	res := r.extractor.Category(doc, t.Context)
	if res.Fallback {
		r.logger.Debug("no subcategories, reading category as supplier listing", "url", t.URL)
		r.supplierListing(ctx, t, doc, res)
		return
	}

	stored := make(map[string]bool, len(res.Subcategories))
	for _, sc := range res.Subcategories {
		_, created, err := r.store.ResolveSubcategory(ctx, sc)
		r.count(model.KindSubcategory, created, err)
		if err != nil {
			r.logger.Warn("failed to store subcategory", "slug", sc.Slug, "category", sc.CategorySlug, "error", err)
			continue
		}
		stored[sc.Slug] = true
	}

	for _, next := range res.Targets {
		if !stored[next.Context.SubcategorySlug] {
			next.Context = next.Context.WithSubcategory("")
		}
		r.enqueue(next)
	}
}

// supplierListing stores the suppliers known from listing data alone and
// queues the detail pages of the others.
func (r *run) supplierListing(ctx context.Context, t model.Target, doc *dom.Document, res extract.Result) {
	r.warn(t, doc, res.Warnings)

	for _, c := range res.Suppliers {
		_, created, err := r.store.UpsertSupplier(ctx, c)
		r.count(model.KindSupplier, created, err)
		if err != nil {
			r.logger.Warn("failed to store supplier", "name", c.Name, "error", err)
		}
	}
	for _, next := range res.Targets {
		r.enqueue(next)
	}
}

func (r *run) supplierDetail(ctx context.Context, t model.Target, doc *dom.Document) {
	res, err := r.extractor.SupplierDetail(doc, t.Context)
	if err != nil {
		r.dump(t, doc)
		r.abandon(t, err)
		return
	}
	r.warn(t, doc, res.Warnings)

	for _, c := range res.Suppliers {
		sp, created, err := r.store.UpsertSupplier(ctx, c)
		r.count(model.KindSupplier, created, err)
		if err != nil {
			r.abandon(t, err)
			return
		}
		r.logger.Debug("supplier stored", "name", sp.Name, "created", created)
	}

	r.storeProducts(ctx, res.Products)
	for _, next := range res.Targets {
		r.enqueue(next)
	}
}

func (r *run) productListing(ctx context.Context, t model.Target, doc *dom.Document) {
	res := r.extractor.ProductListing(doc, t.Context)
	r.warn(t, doc, res.Warnings)

	r.storeProducts(ctx, res.Products)
	for _, next := range res.Targets {
		r.enqueue(next)
	}
}

func (r *run) productDetail(ctx context.Context, t model.Target, doc *dom.Document) {
	res, err := r.extractor.ProductDetail(doc, t.Context)
	if err != nil {
		r.dump(t, doc)
		r.abandon(t, err)
		return
	}

	for _, p := range res.Products {
		created, err := r.store.UpsertProduct(ctx, p)
		r.count(model.KindProduct, created, err)
		if err != nil {
			r.abandon(t, err)
		}
	}
}

// storeProducts stores products read from a listing. A product whose
// supplier is unknown is dropped.
func (r *run) storeProducts(ctx context.Context, products []model.ProductCandidate) {
	for _, p := range products {
		created, err := r.store.UpsertProduct(ctx, p)
		r.count(model.KindProduct, created, err)
		if err != nil {
			msg := "failed to store product"
			if errors.Is(err, database.ErrSupplierNotFound) {
				msg = "product dropped, supplier not stored"
			}
			r.logger.Warn(msg, "name", p.Name, "supplier", p.SupplierName, "error", err)
		}
	}
}
