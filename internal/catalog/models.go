package catalog

import (
	"strings"
	"time"

	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry as persisted under the products blob.
type Product struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice *decimal.Decimal    `json:"originalPrice,omitempty"`
	Image         string              `json:"image,omitempty"`
	Category      string              `json:"category"`
	StoreID       int64               `json:"storeId"`
	Stock         int                 `json:"stock"`
	Rating        float64             `json:"rating"`
	Reviews       int                 `json:"reviews"`
	Status        enums.ProductStatus `json:"status"`
	SKU           string              `json:"sku,omitempty"`
	Slug          string              `json:"slug,omitempty"`
	Brand         string              `json:"brand,omitempty"`
	Subcategory   string              `json:"subcategory,omitempty"`
	Cost          *decimal.Decimal    `json:"cost,omitempty"`

	LowStock        int  `json:"lowStock,omitempty"`
	TrackInventory  bool `json:"trackInventory"`
	AllowBackorders bool `json:"allowBackorders"`

	Weight       *decimal.Decimal `json:"weight,omitempty"`
	Dimensions   string           `json:"dimensions,omitempty"`
	ShippingType string           `json:"shippingType,omitempty"`
	ShippingCost *decimal.Decimal `json:"shippingCost,omitempty"`

	SEOTitle       string `json:"seoTitle,omitempty"`
	SEODescription string `json:"seoDescription,omitempty"`
	SEOKeywords    string `json:"seoKeywords,omitempty"`

	Attributes []string    `json:"attributes,omitempty"`
	Variations []Variation `json:"variations,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Variation is a purchasable option of a product such as a size or colour.
type Variation struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Value           string          `json:"value"`
	AdditionalPrice decimal.Decimal `json:"additionalPrice"`
	Stock           int             `json:"stock"`
	SKU             string          `json:"sku,omitempty"`
}

// VariationID is derived from the option type and value, e.g. "size-extra-large".
func VariationID(kind, value string) string {
	return kind + "-" + strings.Join(strings.Fields(strings.ToLower(value)), "-")
}

// Visible reports whether shoppers can see the product. Legacy entries
// without a status count as published.
func (p Product) Visible() bool {
	return p.Status == "" || p.Status == enums.ProductStatusPublished
}

// Store is a seller storefront.
type Store struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Location      string  `json:"location"`
	Rating        float64 `json:"rating"`
	ProductsCount int     `json:"productsCount"`
	Category      string  `json:"category"`
	Image         string  `json:"image,omitempty"`
}

// Category groups products on the browse pages.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// DefaultLowStock is the low-stock alert threshold used when a vendor sets none.
const DefaultLowStock = 10

const (
	StockLevelIn  = "in-stock"
	StockLevelLow = "low-stock"
	StockLevelOut = "out-of-stock"
)

// StockLevel classifies a stock quantity against the default threshold.
func StockLevel(stock int) string {
	return Product{Stock: stock}.StockLevel()
}

// StockLevel classifies the product's stock for the vendor dashboard, using
// its own low-stock threshold when one is set.
func (p Product) StockLevel() string {
	threshold := p.LowStock
	if threshold <= 0 {
		threshold = DefaultLowStock
	}
	switch {
	case p.Stock > threshold:
		return StockLevelIn
	case p.Stock > 0:
		return StockLevelLow
	default:
		return StockLevelOut
	}
}
