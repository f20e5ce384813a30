package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/pagination"
	"github.com/shopspring/decimal"
)

const (
	DefaultFeaturedLimit       = 6
	DefaultFeaturedStoresLimit = 4
	DefaultRelatedLimit        = 4
	DefaultStoresPerPage       = 12
	maxSlugLength              = 50
)

// ProductQuery filters the shopper product listing.
type ProductQuery struct {
	Category string
	Query    string
}

// StoreFilter filters the store directory.
type StoreFilter struct {
	Category  string
	Location  string
	MinRating float64
	Query     string
	Page      pagination.Params
}

// StorePage is one page of the store directory.
type StorePage struct {
	Stores []Store         `json:"stores"`
	Meta   pagination.Meta `json:"meta"`
}

// VendorQuery drives the vendor product dashboard.
type VendorQuery struct {
	StoreID int64
	Filter  enums.ProductFilter
	Sort    enums.ProductSort
	Query   string
	Page    pagination.Params
}

// VendorProduct decorates a product with its stock classification.
type VendorProduct struct {
	Product
	StockLevel string `json:"stockLevel"`
}

// VendorPage is one page of the vendor dashboard.
type VendorPage struct {
	Products []VendorProduct `json:"products"`
	Meta     pagination.Meta `json:"meta"`
}

// ProductInput carries vendor-supplied fields. Nil fields are left untouched on update.
type ProductInput struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	Image         *string
	Category      *string
	StoreID       *int64
	Stock         *int
	SKU           *string
	Slug          *string
	Brand         *string
	Subcategory   *string
	Cost          *decimal.Decimal

	LowStock        *int
	TrackInventory  *bool
	AllowBackorders *bool

	Weight       *decimal.Decimal
	Dimensions   *string
	ShippingType *string
	ShippingCost *decimal.Decimal

	SEOTitle       *string
	SEODescription *string
	SEOKeywords    *string

	// Attributes and Variations replace the stored lists when non-nil.
	Attributes *[]string
	Variations *[]VariationInput
}

// VariationInput is a vendor-entered option row. Rows without a type or value are dropped.
type VariationInput struct {
	Type            string
	Value           string
	AdditionalPrice decimal.Decimal
	Stock           int
	SKU             string
}

// BulkResult reports how many products a bulk action touched.
type BulkResult struct {
	Action   enums.BulkAction `json:"action"`
	Affected int              `json:"affected"`
}

// Service exposes catalog queries and vendor product management.
type Service interface {
	Products(ctx context.Context, query ProductQuery) ([]Product, error)
	Product(ctx context.Context, id int64) (Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Related(ctx context.Context, id int64, limit int) ([]Product, error)
	Categories(ctx context.Context) []Category
	Stores(ctx context.Context, filter StoreFilter) StorePage
	FeaturedStores(ctx context.Context, limit int) []Store
	VendorProducts(ctx context.Context, query VendorQuery) (VendorPage, error)
	CreateProduct(ctx context.Context, input ProductInput, status enums.ProductStatus) (Product, error)
	UpdateProduct(ctx context.Context, id int64, input ProductInput, status enums.ProductStatus) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	BulkAction(ctx context.Context, action enums.BulkAction, ids []int64) (BulkResult, error)
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo  *Repository
	Clock func() time.Time
	IntN  func(n int) int
}

type service struct {
	repo  *Repository
	clock func() time.Time
	intN  func(n int) int
}

// NewService builds a catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	intN := params.IntN
	if intN == nil {
		intN = rand.IntN
	}
	return &service{repo: params.Repo, clock: clock, intN: intN}, nil
}

// Products lists visible products, optionally narrowed by category and a
// case-insensitive search on name and description.
func (s *service) Products(ctx context.Context, query ProductQuery) ([]Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(query.Category)
	term := strings.ToLower(strings.TrimSpace(query.Query))

	out := make([]Product, 0, len(all))
	for _, p := range all {
		if !p.Visible() {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if term != "" && !containsFold(term, p.Name, p.Description) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *service) Product(ctx context.Context, id int64) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Featured returns the highest rated visible products.
func (s *service) Featured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	products, err := s.Products(ctx, ProductQuery{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Rating > products[j].Rating
	})
	return truncate(products, limit), nil
}

// Related returns other visible products in the same category. An unknown id
// yields an empty list.
func (s *service) Related(ctx context.Context, id int64, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return []Product{}, nil
		}
		return nil, err
	}
	products, err := s.Products(ctx, ProductQuery{Category: current.Category})
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return truncate(out, limit), nil
}

func (s *service) Categories(context.Context) []Category {
	return SeedCategories()
}

// Stores filters the directory and returns the requested page, twelve stores
// per page unless the caller asks otherwise.
func (s *service) Stores(_ context.Context, filter StoreFilter) StorePage {
	term := strings.ToLower(strings.TrimSpace(filter.Query))
	location := strings.TrimSpace(filter.Location)

	out := []Store{}
	for _, st := range SeedStores() {
		if filter.Category != "" && st.Category != filter.Category {
			continue
		}
		if location != "" && !strings.EqualFold(st.Location, location) {
			continue
		}
		if st.Rating < filter.MinRating {
			continue
		}
		if term != "" && !containsFold(term, st.Name, st.Description) {
			continue
		}
		out = append(out, st)
	}
	if filter.Page.Limit <= 0 {
		filter.Page.Limit = DefaultStoresPerPage
	}
	page, meta := pagination.Slice(out, filter.Page)
	return StorePage{Stores: page, Meta: meta}
}

func (s *service) FeaturedStores(_ context.Context, limit int) []Store {
	if limit <= 0 {
		limit = DefaultFeaturedStoresLimit
	}
	return truncate(SeedStores(), limit)
}

// VendorProducts filters, sorts and pages the vendor's products.
func (s *service) VendorProducts(ctx context.Context, query VendorQuery) (VendorPage, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return VendorPage{}, err
	}
	filter := query.Filter
	if filter == "" {
		filter = enums.ProductFilterAll
	}
	term := strings.ToLower(strings.TrimSpace(query.Query))

	matched := make([]Product, 0, len(all))
	for _, p := range all {
		if query.StoreID != 0 && p.StoreID != query.StoreID {
			continue
		}
		if !matchesFilter(p, filter) {
			continue
		}
		if term != "" && !containsFold(term, p.Name, p.Description, p.SKU) {
			continue
		}
		matched = append(matched, p)
	}
	sortProducts(matched, query.Sort)

	page, meta := pagination.Slice(matched, query.Page)
	out := make([]VendorProduct, 0, len(page))
	for _, p := range page {
		out = append(out, VendorProduct{Product: p, StockLevel: p.StockLevel()})
	}
	return VendorPage{Products: out, Meta: meta}, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput, status enums.ProductStatus) (Product, error) {
	if status == "" {
		status = enums.ProductStatusDraft
	}
	if !status.IsValid() {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := validateCreate(input); err != nil {
		return Product{}, err
	}

	now := s.clock().UTC()
	product := Product{Status: status, LowStock: DefaultLowStock, CreatedAt: now, UpdatedAt: now}
	applyInput(&product, input)
	if product.SKU == "" {
		product.SKU = s.generateSKU(now)
	}
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	return s.repo.Add(ctx, product)
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input ProductInput, status enums.ProductStatus) (Product, error) {
	if status != "" && !status.IsValid() {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if err := validateUpdate(input); err != nil {
		return Product{}, err
	}
	now := s.clock().UTC()
	return s.repo.Update(ctx, id, func(p *Product) error {
		applyInput(p, input)
		if status != "" {
			p.Status = status
		}
		if input.Name != nil && input.Slug == nil {
			p.Slug = Slugify(p.Name)
		}
		p.UpdatedAt = now
		return nil
	})
}

func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// BulkAction deletes or restatuses the selected products. Unknown ids are ignored.
func (s *service) BulkAction(ctx context.Context, action enums.BulkAction, ids []int64) (BulkResult, error) {
	if !action.IsValid() {
		return BulkResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid bulk action")
	}
	if len(ids) == 0 {
		return BulkResult{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one product id is required")
	}
	selected := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}

	now := s.clock().UTC()
	affected := 0
	err := s.repo.Mutate(ctx, func(products []Product) ([]Product, error) {
		out := products[:0]
		for _, p := range products {
			if _, ok := selected[p.ID]; !ok {
				out = append(out, p)
				continue
			}
			affected++
			if action == enums.BulkActionDelete {
				continue
			}
			p.Status = enums.ProductStatus(action)
			p.UpdatedAt = now
			out = append(out, p)
		}
		return out, nil
	})
	if err != nil {
		return BulkResult{}, err
	}
	return BulkResult{Action: action, Affected: affected}, nil
}

func (s *service) generateSKU(now time.Time) string {
	return fmt.Sprintf("SKU-%06d-%03d", now.UnixMilli()%1_000_000, s.intN(1000))
}

var (
	slugStripRe = regexp.MustCompile(`[^\w\s-]`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	slugDashRe  = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug from a product name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(slug, "-")
	slug = slugDashRe.ReplaceAllString(slug, "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return slug
}

func validateCreate(input ProductInput) error {
	details := map[string]string{}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		details["name"] = "is required"
	}
	if input.Price == nil {
		details["price"] = "is required"
	}
	if input.Category == nil || strings.TrimSpace(*input.Category) == "" {
		details["category"] = "is required"
	}
	collectRangeErrors(input, details)
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	return nil
}

func validateUpdate(input ProductInput) error {
	details := map[string]string{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		details["name"] = "must not be empty"
	}
	collectRangeErrors(input, details)
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product").WithDetails(details)
	}
	return nil
}

func collectRangeErrors(input ProductInput, details map[string]string) {
	if input.Price != nil && input.Price.IsNegative() {
		details["price"] = "must be at least 0"
	}
	if input.OriginalPrice != nil && input.OriginalPrice.IsNegative() {
		details["originalPrice"] = "must be at least 0"
	}
	if input.Stock != nil && *input.Stock < 0 {
		details["stock"] = "must be at least 0"
	}
	if input.Cost != nil && input.Cost.IsNegative() {
		details["cost"] = "must be at least 0"
	}
	if input.LowStock != nil && *input.LowStock < 0 {
		details["lowStock"] = "must be at least 0"
	}
	if input.Weight != nil && input.Weight.IsNegative() {
		details["weight"] = "must be at least 0"
	}
	if input.ShippingCost != nil && input.ShippingCost.IsNegative() {
		details["shippingCost"] = "must be at least 0"
	}
	if input.Variations != nil {
		for i, v := range *input.Variations {
			if v.Stock < 0 {
				details[fmt.Sprintf("variations[%d].stock", i)] = "must be at least 0"
			}
		}
	}
}

func applyInput(p *Product, input ProductInput) {
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		p.Price = input.Price.Round(2)
	}
	if input.OriginalPrice != nil {
		was := input.OriginalPrice.Round(2)
		p.OriginalPrice = &was
	}
	if input.Image != nil {
		p.Image = *input.Image
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	if input.StoreID != nil {
		p.StoreID = *input.StoreID
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.SKU != nil {
		p.SKU = strings.TrimSpace(*input.SKU)
	}
	if input.Slug != nil {
		p.Slug = Slugify(*input.Slug)
	}
	if input.Brand != nil {
		p.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Subcategory != nil {
		p.Subcategory = strings.TrimSpace(*input.Subcategory)
	}
	if input.Cost != nil {
		cost := input.Cost.Round(2)
		p.Cost = &cost
	}
	if input.LowStock != nil {
		p.LowStock = *input.LowStock
	}
	if input.TrackInventory != nil {
		p.TrackInventory = *input.TrackInventory
	}
	if input.AllowBackorders != nil {
		p.AllowBackorders = *input.AllowBackorders
	}
	if input.Weight != nil {
		weight := *input.Weight
		p.Weight = &weight
	}
	if input.Dimensions != nil {
		p.Dimensions = strings.TrimSpace(*input.Dimensions)
	}
	if input.ShippingType != nil {
		p.ShippingType = strings.TrimSpace(*input.ShippingType)
	}
	if input.ShippingCost != nil {
		cost := input.ShippingCost.Round(2)
		p.ShippingCost = &cost
	}
	if input.SEOTitle != nil {
		p.SEOTitle = strings.TrimSpace(*input.SEOTitle)
	}
	if input.SEODescription != nil {
		p.SEODescription = strings.TrimSpace(*input.SEODescription)
	}
	if input.SEOKeywords != nil {
		p.SEOKeywords = strings.TrimSpace(*input.SEOKeywords)
	}
	if input.Attributes != nil {
		p.Attributes = cleanAttributes(*input.Attributes)
	}
	if input.Variations != nil {
		p.Variations = buildVariations(*input.Variations)
	}
}

func cleanAttributes(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func buildVariations(in []VariationInput) []Variation {
	out := make([]Variation, 0, len(in))
	for _, v := range in {
		kind := strings.TrimSpace(v.Type)
		value := strings.TrimSpace(v.Value)
		if kind == "" || value == "" {
			continue
		}
		out = append(out, Variation{
			ID:              VariationID(kind, value),
			Type:            kind,
			Value:           value,
			AdditionalPrice: v.AdditionalPrice.Round(2),
			Stock:           v.Stock,
			SKU:             strings.TrimSpace(v.SKU),
		})
	}
	return out
}

func matchesFilter(p Product, filter enums.ProductFilter) bool {
	switch filter {
	case enums.ProductFilterAll:
		return true
	case enums.ProductFilterOutOfStock:
		return p.Stock == 0
	default:
		return string(p.Status) == string(filter)
	}
}

func sortProducts(products []Product, order enums.ProductSort) {
	var less func(a, b Product) bool
	switch order {
	case enums.ProductSortOldest:
		less = func(a, b Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case enums.ProductSortPriceLow:
		less = func(a, b Product) bool { return a.Price.LessThan(b.Price) }
	case enums.ProductSortPriceHigh:
		less = func(a, b Product) bool { return a.Price.GreaterThan(b.Price) }
	case enums.ProductSortNameAsc:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case enums.ProductSortNameDesc:
		less = func(a, b Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	default:
		less = func(a, b Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })
}

func containsFold(term string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
