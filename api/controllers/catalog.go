package controllers

import (
	"net/http"

	"github.com/angelmondragon/suuq-marketplace/api/responses"
	"github.com/angelmondragon/suuq-marketplace/api/validators"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/pagination"
)

const maxSearchLength = 100

// CatalogProducts lists published products for shoppers.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}

		query := catalog.ProductQuery{
			Category: validators.SanitizeString(r.URL.Query().Get("category"), maxSearchLength),
			Query:    validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLength),
		}
		products, err := svc.Products(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogFeatured(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultFeaturedLimit, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
		product, err := svc.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CatalogRelated(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
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
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultRelatedLimit, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.Related(r.Context(), id, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		responses.WriteSuccess(w, svc.Categories(r.Context()))
	}
}

// CatalogStores pages the store directory, filtered by category, location,
// minimum rating and a free-text search.
func CatalogStores(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		minRating, err := validators.ParseQueryFloat(r, "min_rating", 0, 0, 5)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultStoresPerPage, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		filter := catalog.StoreFilter{
			Category:  validators.SanitizeString(q.Get("category"), maxSearchLength),
			Location:  validators.SanitizeString(q.Get("location"), maxSearchLength),
			MinRating: minRating,
			Query:     validators.SanitizeString(q.Get("q"), maxSearchLength),
			Page:      pagination.Params{Page: page, Limit: limit},
		}
		responses.WriteSuccess(w, svc.Stores(r.Context(), filter))
	}
}

func CatalogFeaturedStores(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("catalog"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultFeaturedStoresLimit, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.FeaturedStores(r.Context(), limit))
	}
}
