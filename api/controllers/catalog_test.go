package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	pkgerrors "github.com/angelmondragon/suuq-marketplace/pkg/errors"
)

type stubCatalog struct {
	products    []catalog.Product
	product     catalog.Product
	err         error
	query       catalog.ProductQuery
	storeFilter catalog.StoreFilter
	vendorQuery catalog.VendorQuery
	input       catalog.ProductInput
	status      enums.ProductStatus
	bulkAction  enums.BulkAction
	bulkIDs     []int64
	deletedID   int64
	limit       int
}

func (s *stubCatalog) Products(_ context.Context, query catalog.ProductQuery) ([]catalog.Product, error) {
	s.query = query
	return s.products, s.err
}

func (s *stubCatalog) Product(_ context.Context, id int64) (catalog.Product, error) {
	if s.err != nil {
		return catalog.Product{}, s.err
	}
	p := s.product
	p.ID = id
	return p, nil
}

func (s *stubCatalog) Featured(_ context.Context, limit int) ([]catalog.Product, error) {
	s.limit = limit
	return s.products, s.err
}

func (s *stubCatalog) Related(_ context.Context, _ int64, limit int) ([]catalog.Product, error) {
	s.limit = limit
	return s.products, s.err
}

func (s *stubCatalog) Categories(context.Context) []catalog.Category {
	return catalog.SeedCategories()
}

func (s *stubCatalog) Stores(_ context.Context, filter catalog.StoreFilter) catalog.StorePage {
	s.storeFilter = filter
	return catalog.StorePage{Stores: []catalog.Store{}, Meta: filter.Page.MetaFor(0)}
}

func (s *stubCatalog) FeaturedStores(_ context.Context, limit int) []catalog.Store {
	s.limit = limit
	return []catalog.Store{}
}

func (s *stubCatalog) VendorProducts(_ context.Context, query catalog.VendorQuery) (catalog.VendorPage, error) {
	s.vendorQuery = query
	return catalog.VendorPage{Products: []catalog.VendorProduct{}}, s.err
}

func (s *stubCatalog) CreateProduct(_ context.Context, input catalog.ProductInput, status enums.ProductStatus) (catalog.Product, error) {
	s.input = input
	s.status = status
	if s.err != nil {
		return catalog.Product{}, s.err
	}
	return catalog.Product{ID: 13, Name: *input.Name, Status: status}, nil
}

func (s *stubCatalog) UpdateProduct(_ context.Context, id int64, input catalog.ProductInput, status enums.ProductStatus) (catalog.Product, error) {
	s.input = input
	s.status = status
	if s.err != nil {
		return catalog.Product{}, s.err
	}
	return catalog.Product{ID: id}, nil
}

func (s *stubCatalog) DeleteProduct(_ context.Context, id int64) error {
	s.deletedID = id
	return s.err
}

func (s *stubCatalog) BulkAction(_ context.Context, action enums.BulkAction, ids []int64) (catalog.BulkResult, error) {
	s.bulkAction = action
	s.bulkIDs = ids
	return catalog.BulkResult{Action: action, Affected: len(ids)}, s.err
}

func TestCatalogProductsPassesFilters(t *testing.T) {
	svc := &stubCatalog{products: []catalog.Product{{ID: 1, Name: "Canjeero", Price: decimal.RequireFromString("5.99")}}}
	rec := serve(http.MethodGet, "/api/v1/products", "/api/v1/products?category=food&q=%20canj%20", "", CatalogProducts(svc, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.query.Category != "food" || svc.query.Query != "canj" {
		t.Fatalf("unexpected query %+v", svc.query)
	}
	var products []catalog.Product
	decodeData(t, rec, &products)
	if len(products) != 1 || !products[0].Price.Equal(decimal.RequireFromString("5.99")) {
		t.Fatalf("unexpected products %+v", products)
	}
}

func TestCatalogFeaturedDefaultsLimit(t *testing.T) {
	svc := &stubCatalog{}
	rec := serve(http.MethodGet, "/api/v1/products/featured", "/api/v1/products/featured", "", CatalogFeatured(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.limit != catalog.DefaultFeaturedLimit {
		t.Fatalf("expected default limit, got %d", svc.limit)
	}
}

func TestCatalogProductRejectsBadID(t *testing.T) {
	rec := serve(http.MethodGet, "/api/v1/products/{productId}", "/api/v1/products/abc", "", CatalogProduct(&stubCatalog{}, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCatalogProductNotFound(t *testing.T) {
	svc := &stubCatalog{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec := serve(http.MethodGet, "/api/v1/products/{productId}", "/api/v1/products/99", "", CatalogProduct(svc, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Error.Code != string(pkgerrors.CodeNotFound) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
}

func TestCatalogStoresParsesRating(t *testing.T) {
	svc := &stubCatalog{}
	rec := serve(http.MethodGet, "/api/v1/stores", "/api/v1/stores?min_rating=4.5&location=Mogadishu", "", CatalogStores(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.storeFilter.MinRating != 4.5 || svc.storeFilter.Location != "Mogadishu" {
		t.Fatalf("unexpected filter %+v", svc.storeFilter)
	}

	if svc.storeFilter.Page.Page != 1 || svc.storeFilter.Page.Limit != catalog.DefaultStoresPerPage {
		t.Fatalf("expected default paging, got %+v", svc.storeFilter.Page)
	}

	rec = serve(http.MethodGet, "/api/v1/stores", "/api/v1/stores?min_rating=9", "", CatalogStores(svc, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range rating got %d", rec.Code)
	}
	rec = serve(http.MethodGet, "/api/v1/stores", "/api/v1/stores?min_rating=NaN", "", CatalogStores(svc, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for NaN rating got %d", rec.Code)
	}
}

func TestCatalogStoresParsesPaging(t *testing.T) {
	svc := &stubCatalog{}
	rec := serve(http.MethodGet, "/api/v1/stores", "/api/v1/stores?page=2&limit=5", "", CatalogStores(svc, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.storeFilter.Page.Page != 2 || svc.storeFilter.Page.Limit != 5 {
		t.Fatalf("unexpected paging %+v", svc.storeFilter.Page)
	}
	var page catalog.StorePage
	decodeData(t, rec, &page)
	if page.Meta.Page != 2 || page.Meta.Limit != 5 {
		t.Fatalf("unexpected meta %+v", page.Meta)
	}

	rec = serve(http.MethodGet, "/api/v1/stores", "/api/v1/stores?page=0", "", CatalogStores(svc, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0 got %d", rec.Code)
	}
}

func TestCatalogUnavailable(t *testing.T) {
	rec := serve(http.MethodGet, "/api/v1/categories", "/api/v1/categories", "", CatalogCategories(nil, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
