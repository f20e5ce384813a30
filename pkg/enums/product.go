package enums

import "fmt"

// ProductStatus is the publication state of a vendor product.
type ProductStatus string

const (
	ProductStatusPublished ProductStatus = "published"
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusArchived  ProductStatus = "archived"
)

var validProductStatuses = []ProductStatus{
	ProductStatusPublished,
	ProductStatusDraft,
	ProductStatusArchived,
}

var productStatusLabels = map[ProductStatus]string{
	ProductStatusPublished: "Published",
	ProductStatusDraft:     "Draft",
	ProductStatusArchived:  "Archived",
}

// String implements fmt.Stringer.
func (p ProductStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductStatus.
func (p ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// Label returns the display text for the status.
func (p ProductStatus) Label() string {
	if label, ok := productStatusLabels[p]; ok {
		return label
	}
	return string(p)
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}

// ProductFilter narrows the vendor product listing.
type ProductFilter string

const (
	ProductFilterAll        ProductFilter = "all"
	ProductFilterPublished  ProductFilter = "published"
	ProductFilterDraft      ProductFilter = "draft"
	ProductFilterArchived   ProductFilter = "archived"
	ProductFilterOutOfStock ProductFilter = "outofstock"
)

var validProductFilters = []ProductFilter{
	ProductFilterAll,
	ProductFilterPublished,
	ProductFilterDraft,
	ProductFilterArchived,
	ProductFilterOutOfStock,
}

// String implements fmt.Stringer.
func (p ProductFilter) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductFilter.
func (p ProductFilter) IsValid() bool {
	for _, candidate := range validProductFilters {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductFilter converts raw input into a ProductFilter. Empty input means all.
func ParseProductFilter(value string) (ProductFilter, error) {
	if value == "" {
		return ProductFilterAll, nil
	}
	for _, candidate := range validProductFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product filter %q", value)
}

// ProductSort orders the vendor product listing.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortOldest    ProductSort = "oldest"
	ProductSortPriceLow  ProductSort = "price-low"
	ProductSortPriceHigh ProductSort = "price-high"
	ProductSortNameAsc   ProductSort = "name-a"
	ProductSortNameDesc  ProductSort = "name-z"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortOldest,
	ProductSortPriceLow,
	ProductSortPriceHigh,
	ProductSortNameAsc,
	ProductSortNameDesc,
}

// String implements fmt.Stringer.
func (p ProductSort) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductSort.
func (p ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort. Empty input means newest.
func ParseProductSort(value string) (ProductSort, error) {
	if value == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}

// BulkAction is applied to a selection of vendor products.
type BulkAction string

const (
	BulkActionDelete    BulkAction = "delete"
	BulkActionPublished BulkAction = "published"
	BulkActionDraft     BulkAction = "draft"
	BulkActionArchived  BulkAction = "archived"
)

var validBulkActions = []BulkAction{
	BulkActionDelete,
	BulkActionPublished,
	BulkActionDraft,
	BulkActionArchived,
}

// String implements fmt.Stringer.
func (b BulkAction) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BulkAction.
func (b BulkAction) IsValid() bool {
	for _, candidate := range validBulkActions {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBulkAction converts raw input into a BulkAction.
func ParseBulkAction(value string) (BulkAction, error) {
	for _, candidate := range validBulkActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bulk action %q", value)
}
