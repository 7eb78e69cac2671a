package extract

// Rules holds the CSS selectors used by the Extractor. Slice fields are
// fallback chains evaluated in order.
type Rules struct {
	// Root page
	CategoryLink string `yaml:"categoryLink"`

	// Category page
	SubcategoryLink string `yaml:"subcategoryLink"`

	// Supplier listing page
	SupplierItem      string   `yaml:"supplierItem"`
	SupplierItemName  []string `yaml:"supplierItemName"`
	SupplierItemLink  string   `yaml:"supplierItemLink"`
	SupplierItemCity  []string `yaml:"supplierItemCity"`
	SupplierItemPhone string   `yaml:"supplierItemPhone"`

	// Supplier detail page
	SupplierName        []string `yaml:"supplierName"`
	SupplierCity        []string `yaml:"supplierCity"`
	SupplierPhoneLink   string   `yaml:"supplierPhoneLink"`
	SupplierPhoneParts  string   `yaml:"supplierPhoneParts"`
	SupplierPhone       []string `yaml:"supplierPhone"`
	SupplierDescription string   `yaml:"supplierDescription"`
	SupplierLogo        string   `yaml:"supplierLogo"`
	GoodsLink           string   `yaml:"goodsLink"`
	SupplierProductItem string   `yaml:"supplierProductItem"`

	// Product items, shared by supplier pages and goods listings
	ProductItem      string   `yaml:"productItem"`
	ProductItemName  []string `yaml:"productItemName"`
	ProductItemImage []string `yaml:"productItemImage"`
	ProductLink      string   `yaml:"productLink"`
	ProductMenuLink  string   `yaml:"productMenuLink"`

	// Product detail page
	ProductName        []string `yaml:"productName"`
	ProductImage       []string `yaml:"productImage"`
	ProductOffer       string   `yaml:"productOffer"`
	ProductPrice       string   `yaml:"productPrice"`
	PriceWords         []string `yaml:"priceWords"`
	ProductDescription string   `yaml:"productDescription"`
	ProductAbout       string   `yaml:"productAbout"`
}

// DefaultRules returns the selectors for the optoviki.kz markup.
func DefaultRules() Rules {
	return Rules{
		CategoryLink: `a[href*="optom-"]`,

		SubcategoryLink: `a[href*="-"]`,

		SupplierItem:      `li.c-container`,
		SupplierItemName:  []string{`.c-c-name a span`, `.c-c-name a`, `.c-c-name span`},
		SupplierItemLink:  `.c-c-name a`,
		SupplierItemCity:  []string{`.c-c-region span a`},
		SupplierItemPhone: `.fc-str-right span`,

		SupplierName:        []string{`h1.firm-head-name`, `.firm-head-name`},
		SupplierCity:        []string{`.firm-head-adress`},
		SupplierPhoneLink:   `a[href^="tel:"]`,
		SupplierPhoneParts:  `.fc-str-right span`,
		SupplierPhone:       []string{`.c-c-phone`},
		SupplierDescription: `.firm-content-block, .firm-about`,
		SupplierLogo:        `.firm-logo img`,
		GoodsLink:           `a[href*="/goods"]`,
		SupplierProductItem: `ul.firm-goods-list li[itemscope][itemtype*="Product"]`,

		ProductItem:      `li[itemscope][itemtype*="Product"], .c-c-main[itemscope][itemtype*="Product"]`,
		ProductItemName:  []string{`span[itemprop="name"]`, `.f-g-name span`, `.f-g-name a`},
		ProductItemImage: []string{`img[itemprop="image"]`, `img`},
		ProductLink:      `a[href*="/goods/"]`,
		ProductMenuLink:  `#goods-menu a[href*="/goods/"]`,

		ProductName:        []string{`span[itemprop="name"]`, `.c-c-name span[itemprop="name"]`, `.c-c-name span`, `h3`, `.product-name`},
		ProductImage:       []string{`img[itemprop="image"]`, `.f-g-foto-block img`, `.f-g-foto img`, `img`},
		ProductOffer:       `span[itemprop="offers"]`,
		ProductPrice:       `meta[itemprop="price"]`,
		PriceWords:         []string{"тенге"},
		ProductDescription: `meta[itemprop="description"]`,
		ProductAbout:       `.c-c-about`,
	}
}

// Merge returns r with every non-empty field of override applied.
func (r Rules) Merge(override Rules) Rules {
	str := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	list := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string(nil), src...)
		}
	}

	str(&r.CategoryLink, override.CategoryLink)
	str(&r.SubcategoryLink, override.SubcategoryLink)

	str(&r.SupplierItem, override.SupplierItem)
	list(&r.SupplierItemName, override.SupplierItemName)
	str(&r.SupplierItemLink, override.SupplierItemLink)
	list(&r.SupplierItemCity, override.SupplierItemCity)
	str(&r.SupplierItemPhone, override.SupplierItemPhone)

	list(&r.SupplierName, override.SupplierName)
	list(&r.SupplierCity, override.SupplierCity)
	str(&r.SupplierPhoneLink, override.SupplierPhoneLink)
	str(&r.SupplierPhoneParts, override.SupplierPhoneParts)
	list(&r.SupplierPhone, override.SupplierPhone)
	str(&r.SupplierDescription, override.SupplierDescription)
	str(&r.SupplierLogo, override.SupplierLogo)
	str(&r.GoodsLink, override.GoodsLink)
	str(&r.SupplierProductItem, override.SupplierProductItem)

	str(&r.ProductItem, override.ProductItem)
	list(&r.ProductItemName, override.ProductItemName)
	list(&r.ProductItemImage, override.ProductItemImage)
	str(&r.ProductLink, override.ProductLink)
	str(&r.ProductMenuLink, override.ProductMenuLink)

	list(&r.ProductName, override.ProductName)
	list(&r.ProductImage, override.ProductImage)
	str(&r.ProductOffer, override.ProductOffer)
	str(&r.ProductPrice, override.ProductPrice)
	list(&r.PriceWords, override.PriceWords)
	str(&r.ProductDescription, override.ProductDescription)
	str(&r.ProductAbout, override.ProductAbout)

	return r
}
