package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/suuq-marketplace/api/responses"
	"github.com/angelmondragon/suuq-marketplace/api/validators"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/pagination"
)

const maxDescriptionLength = 2000

type productRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice"`
	Image         *string          `json:"image"`
	Category      *string          `json:"category"`
	StoreID       *int64           `json:"storeId"`
	Stock         *int             `json:"stock"`
	SKU           *string          `json:"sku"`
	Slug          *string          `json:"slug"`
	Brand         *string          `json:"brand"`
	Subcategory   *string          `json:"subcategory"`
	Cost          *decimal.Decimal `json:"cost"`

	LowStock        *int  `json:"lowStock"`
	TrackInventory  *bool `json:"trackInventory"`
	AllowBackorders *bool `json:"allowBackorders"`

	Weight       *decimal.Decimal `json:"weight"`
	Dimensions   *string          `json:"dimensions"`
	ShippingType *string          `json:"shippingType"`
	ShippingCost *decimal.Decimal `json:"shippingCost"`

	SEOTitle       *string `json:"seoTitle"`
	SEODescription *string `json:"seoDescription"`
	SEOKeywords    *string `json:"seoKeywords"`

	Attributes []string           `json:"attributes" validate:"omitempty,max=50,dive,max=100"`
	Variations []variationRequest `json:"variations" validate:"omitempty,max=50,dive"`

	Status string `json:"status" validate:"omitempty,oneof=published draft archived"`
}

type variationRequest struct {
	Type            string          `json:"type" validate:"max=50"`
	Value           string          `json:"value" validate:"max=100"`
	AdditionalPrice decimal.Decimal `json:"additionalPrice"`
	Stock           int             `json:"stock" validate:"gte=0"`
	SKU             string          `json:"sku" validate:"max=200"`
}

func (p productRequest) toInput() catalog.ProductInput {
	input := catalog.ProductInput{
		Name:          validators.SanitizeOptional(p.Name, maxFieldLength),
		Description:   validators.SanitizeOptional(p.Description, maxDescriptionLength),
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         validators.SanitizeOptional(p.Image, maxDescriptionLength),
		Category:      validators.SanitizeOptional(p.Category, maxFieldLength),
		StoreID:       p.StoreID,
		Stock:         p.Stock,
		SKU:           validators.SanitizeOptional(p.SKU, maxFieldLength),
		Slug:          validators.SanitizeOptional(p.Slug, maxFieldLength),
		Brand:         validators.SanitizeOptional(p.Brand, maxFieldLength),
		Subcategory:   validators.SanitizeOptional(p.Subcategory, maxFieldLength),
		Cost:          p.Cost,

		LowStock:        p.LowStock,
		TrackInventory:  p.TrackInventory,
		AllowBackorders: p.AllowBackorders,

		Weight:       p.Weight,
		Dimensions:   validators.SanitizeOptional(p.Dimensions, maxFieldLength),
		ShippingType: validators.SanitizeOptional(p.ShippingType, maxFieldLength),
		ShippingCost: p.ShippingCost,

		SEOTitle:       validators.SanitizeOptional(p.SEOTitle, maxFieldLength),
		SEODescription: validators.SanitizeOptional(p.SEODescription, maxDescriptionLength),
		SEOKeywords:    validators.SanitizeOptional(p.SEOKeywords, maxFieldLength),
	}
	// A present list, even empty, replaces the stored one.
	if p.Attributes != nil {
		attrs := make([]string, 0, len(p.Attributes))
		for _, a := range p.Attributes {
			attrs = append(attrs, validators.SanitizeString(a, maxFieldLength))
		}
		input.Attributes = &attrs
	}
	if p.Variations != nil {
		variations := make([]catalog.VariationInput, 0, len(p.Variations))
		for _, v := range p.Variations {
			variations = append(variations, catalog.VariationInput{
				Type:            validators.SanitizeString(v.Type, maxFieldLength),
				Value:           validators.SanitizeString(v.Value, maxFieldLength),
				AdditionalPrice: v.AdditionalPrice,
				Stock:           v.Stock,
				SKU:             validators.SanitizeString(v.SKU, maxFieldLength),
			})
		}
		input.Variations = &variations
	}
	return input
}

type bulkRequest struct {
	Action string  `json:"action" validate:"required,oneof=delete published draft archived"`
	IDs    []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// VendorProducts pages the vendor dashboard listing.
func VendorProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		storeID, err := validators.ParseQueryInt64(r, "store_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		filter, err := enums.ParseProductFilter(q.Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
			return
		}
		sortOrder, err := enums.ParseProductSort(q.Get("sort"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort"))
			return
		}

		result, err := svc.VendorProducts(r.Context(), catalog.VendorQuery{
			StoreID: storeID,
			Filter:  filter,
			Sort:    sortOrder,
			Query:   validators.SanitizeString(q.Get("q"), maxSearchLength),
			Page:    pagination.Params{Page: page, Limit: limit},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func VendorCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), payload.toInput(), enums.ProductStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func VendorUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, payload.toInput(), enums.ProductStatus(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func VendorDeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		id, err := validators.ParseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func VendorBulkAction(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		var payload bulkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		action, err := enums.ParseBulkAction(payload.Action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bulk action"))
			return
		}
		result, err := svc.BulkAction(r.Context(), action, payload.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
