package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/optovka/internal/dom"
	"github.com/nao1215/optovka/internal/model"
	"github.com/shopspring/decimal"
)

// Result is what one page yields. Records are candidates for the store,
// Targets are follow-up pages. Warnings never stop the branch.
type Result struct {
	Categories    []model.CategoryCandidate
	Subcategories []model.SubcategoryCandidate
	Suppliers     []model.SupplierCandidate
	Products      []model.ProductCandidate
	Targets       []model.Target
	Warnings      []error

	// Fallback is set when a category page had no subcategory links and
	// was read as a supplier listing instead.
	Fallback bool
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Errorf("%w: "+format, append([]any{ErrNoItems}, args...)...))
}

// Extractor reads directory pages using a set of Rules.
type Extractor struct {
	rules Rules
}

// New returns an Extractor for the given rules.
func New(rules Rules) *Extractor {
	return &Extractor{rules: rules}
}

// Rules returns the rules the extractor was built with.
func (e *Extractor) Rules() Rules {
	return e.rules
}

// pathDepth returns the number of non-empty path segments of rawURL.
func pathDepth(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	n := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// supplierIDPattern pulls a numeric company id segment out of a supplier
// URL path.
var supplierIDPattern = regexp.MustCompile(`/(\d+)(?:/|$)`)

// Root extracts the categories of the directory front page.
func (e *Extractor) Root(doc *dom.Document) Result {
	var res Result
	seen := make(map[string]struct{})

	doc.Find(e.rules.CategoryLink).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		abs := doc.Resolve(href)
		slug := dom.Slug(abs)
		name := dom.Text(a)
		if abs == "" || slug == "" || name == "" {
			return
		}
		res.Categories = append(res.Categories, model.CategoryCandidate{Name: name, Slug: slug})
		res.Targets = append(res.Targets, model.Target{
			Stage:   model.StageCategory,
			URL:     abs,
			Context: model.TraversalContext{}.WithCategory(slug),
		})
	})

	if len(res.Categories) == 0 {
		res.warn("category links (%s)", e.rules.CategoryLink)
	}
	return res
}

// Category extracts the subcategories of a category page. When the page
// has none, it is read as a supplier listing with no subcategory.
func (e *Extractor) Category(doc *dom.Document, tctx model.TraversalContext) Result {
	var res Result
	seen := make(map[string]struct{})
	self := strings.TrimRight(doc.URL(), "/")

	doc.Find(e.rules.SubcategoryLink).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		abs := doc.Resolve(href)
		if abs == "" || !doc.SameHost(abs) || strings.TrimRight(abs, "/") == self {
			return
		}
		// Top-level category links repeat in the site navigation.
		if a.Is(e.rules.CategoryLink) && pathDepth(abs) == 1 {
			return
		}
		slug := dom.Slug(abs)
		name := dom.Text(a)
		if slug == "" || name == "" {
			return
		}
		res.Subcategories = append(res.Subcategories, model.SubcategoryCandidate{
			Name:         name,
			Slug:         slug,
			CategorySlug: tctx.CategorySlug,
		})
		res.Targets = append(res.Targets, model.Target{
			Stage:   model.StageSupplierListing,
			URL:     abs,
			Context: tctx.WithSubcategory(slug),
		})
	})

	if len(res.Subcategories) > 0 {
		return res
	}

	res = e.SupplierListing(doc, tctx.WithSubcategory(""))
	res.Fallback = true
	return res
}

// SupplierListing extracts supplier list items. Items with a detail link
// become detail targets carrying the listing values; the rest become
// finalized candidates built from listing data alone.
func (e *Extractor) SupplierListing(doc *dom.Document, tctx model.TraversalContext) Result {
	var res Result
	seen := make(map[string]struct{})
	nameChain := dom.TextChain(e.rules.SupplierItemName...)
	cityChain := dom.TextChain(e.rules.SupplierItemCity...)

	items := doc.Find(e.rules.SupplierItem)
	items.Each(func(_ int, item *goquery.Selection) {
		listing := model.ListingFallback{
			Name:  dom.FirstNonEmpty(item, nameChain...),
			City:  dom.FirstNonEmpty(item, cityChain...),
			Phone: dom.JoinedText(item.Find(e.rules.SupplierItemPhone)),
		}

		href := dom.Attr(item.Find(e.rules.SupplierItemLink), "href")
		if abs := doc.Resolve(href); abs != "" {
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			res.Targets = append(res.Targets, model.Target{
				Stage:   model.StageSupplierDetail,
				URL:     abs,
				Context: tctx.WithListing(listing),
			})
			return
		}

		if listing.Name == "" {
			return
		}
		res.Suppliers = append(res.Suppliers, model.SupplierCandidate{
			Name:            listing.Name,
			City:            listing.City,
			Phone:           listing.Phone,
			CategorySlug:    tctx.CategorySlug,
			SubcategorySlug: tctx.SubcategorySlug,
		})
	})

	if items.Length() == 0 {
		res.warn("supplier items (%s)", e.rules.SupplierItem)
	}
	return res
}

// SupplierDetail extracts a supplier profile. Listing values from tctx
// fill fields the page lacks. The supplier's own product items and the
// link to its full goods listing are returned as well.
func (e *Extractor) SupplierDetail(doc *dom.Document, tctx model.TraversalContext) (Result, error) {
	var res Result
	root := doc.Selection()
	l := tctx.Listing

	name := dom.FirstNonEmpty(root, append(dom.TextChain(e.rules.SupplierName...), dom.Fixed(l.Name))...)
	if name == "" {
		return res, fmt.Errorf("%w: supplier detail %s", ErrMissingName, doc.URL())
	}

	city := dom.FirstNonEmpty(root, append(dom.TextChain(e.rules.SupplierCity...), dom.Fixed(l.City))...)

	phoneChain := []dom.Strategy{
		dom.AttrPrefix(e.rules.SupplierPhoneLink, "href", "tel:"),
		dom.JoinedTextOf(e.rules.SupplierPhoneParts),
	}
	phoneChain = append(phoneChain, dom.TextChain(e.rules.SupplierPhone...)...)
	phoneChain = append(phoneChain, dom.Fixed(l.Phone))
	phone := dom.FirstNonEmpty(root, phoneChain...)

	var image string
	if src := dom.Attr(doc.Find(e.rules.SupplierLogo), "src"); src != "" {
		image = doc.Resolve(src)
	}

	res.Suppliers = append(res.Suppliers, model.SupplierCandidate{
		Name:            name,
		URL:             doc.URL(),
		City:            city,
		Phone:           phone,
		Description:     dom.JoinedText(doc.Find(e.rules.SupplierDescription)),
		ImageURL:        image,
		CategorySlug:    tctx.CategorySlug,
		SubcategorySlug: tctx.SubcategorySlug,
	})

	branch := tctx.WithSupplier(name)
	seen := make(map[string]struct{})
	doc.Find(e.rules.SupplierProductItem).Each(func(_ int, item *goquery.Selection) {
		e.productItem(doc, item, branch, seen, &res, true)
	})

	if doc.Find(e.rules.GoodsLink).Length() > 0 {
		if goods := e.goodsURL(doc); goods != "" {
			res.Targets = append(res.Targets, model.Target{
				Stage:   model.StageProductListing,
				URL:     goods,
				Context: branch,
			})
		}
	}
	return res, nil
}

// goodsURL returns the supplier's goods listing URL, /{id}/goods when the
// supplier URL carries a numeric id, else the resolved goods link.
func (e *Extractor) goodsURL(doc *dom.Document) string {
	if u, err := url.Parse(doc.URL()); err == nil {
		if m := supplierIDPattern.FindStringSubmatch(u.Path); m != nil {
			return doc.Resolve("/" + m[1] + "/goods")
		}
	}
	return doc.Resolve(dom.Attr(doc.Find(e.rules.GoodsLink), "href"))
}

// ProductListing extracts a supplier's goods page. Product links become
// detail targets; product items without a link become candidates. Both
// run over the same page.
func (e *Extractor) ProductListing(doc *dom.Document, tctx model.TraversalContext) Result {
	var res Result
	seen := make(map[string]struct{})

	doc.Find(e.rules.ProductLink + ", " + e.rules.ProductMenuLink).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		if abs := doc.Resolve(href); abs != "" {
			res.Targets = append(res.Targets, model.Target{
				Stage:   model.StageProductDetail,
				URL:     abs,
				Context: tctx,
			})
		}
	})

	items := doc.Find(e.rules.ProductItem)
	items.Each(func(_ int, item *goquery.Selection) {
		e.productItem(doc, item, tctx, seen, &res, false)
	})

	if len(res.Targets) == 0 && items.Length() == 0 {
		res.warn("product links or items on %s", doc.URL())
	}
	return res
}

// productItem reads one structured product item. With followLinks set,
// an item linking to its detail page yields a target instead of a record.
// Otherwise linked items are skipped, as the page-level link scan already
// queued them.
func (e *Extractor) productItem(doc *dom.Document, item *goquery.Selection, tctx model.TraversalContext, seen map[string]struct{}, res *Result, followLinks bool) {
	href := dom.Attr(item.Find(e.rules.ProductLink), "href")
	if abs := doc.Resolve(href); abs != "" {
		if !followLinks {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		res.Targets = append(res.Targets, model.Target{
			Stage:   model.StageProductDetail,
			URL:     abs,
			Context: tctx,
		})
		return
	}

	name := dom.FirstNonEmpty(item, dom.TextChain(e.rules.ProductItemName...)...)
	if name == "" {
		return
	}
	var image string
	if src := dom.FirstNonEmpty(item, dom.AttrChain("src", e.rules.ProductItemImage...)...); src != "" {
		image = doc.Resolve(src)
	}
	res.Products = append(res.Products, model.ProductCandidate{
		Name:         name,
		SupplierName: tctx.SupplierName,
		ImageURL:     image,
	})
}

// ProductDetail extracts a single product page. It fails with
// ErrMissingName when no name selector matches.
func (e *Extractor) ProductDetail(doc *dom.Document, tctx model.TraversalContext) (Result, error) {
	var res Result
	root := doc.Selection()

	name := dom.FirstNonEmpty(root, dom.TextChain(e.rules.ProductName...)...)
	if name == "" {
		return res, fmt.Errorf("%w: product detail %s", ErrMissingName, doc.URL())
	}

	var image string
	if src := dom.FirstNonEmpty(root, dom.AttrChain("src", e.rules.ProductImage...)...); src != "" {
		image = doc.Resolve(src)
	}

	description := dom.FirstNonEmpty(root,
		dom.AttrOf(e.rules.ProductDescription, "content"),
		dom.JoinedTextOf(e.rules.ProductAbout),
	)

	res.Products = append(res.Products, model.ProductCandidate{
		Name:         name,
		SupplierName: tctx.SupplierName,
		ImageURL:     image,
		Price:        dom.FirstNonEmpty(root, e.priceChain()...),
		Description:  description,
	})
	return res, nil
}

// priceChain reads the offer's machine-readable price, then offer text
// mentioning a currency word, then a page-level price meta.
func (e *Extractor) priceChain() []dom.Strategy {
	offerMeta := func(root *goquery.Selection) string {
		return normalizePrice(dom.Attr(root.Find(e.rules.ProductOffer).Find(e.rules.ProductPrice), "content"))
	}
	offerText := func(root *goquery.Selection) string {
		for _, text := range dom.TextNodes(root.Find(e.rules.ProductOffer)) {
			lower := strings.ToLower(text)
			for _, word := range e.rules.PriceWords {
				if word != "" && strings.Contains(lower, strings.ToLower(word)) {
					return text
				}
			}
		}
		return ""
	}
	pageMeta := func(root *goquery.Selection) string {
		return normalizePrice(dom.Attr(root.Find(e.rules.ProductPrice), "content"))
	}
	return []dom.Strategy{offerMeta, offerText, pageMeta}
}

// normalizePrice canonicalizes a numeric price such as "1500.00" or
// "1 500,5". Values that are not numbers are returned trimmed.
func normalizePrice(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	compact := strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(v)
	d, err := decimal.NewFromString(compact)
	if err != nil {
		return v
	}
	return d.String()
}
