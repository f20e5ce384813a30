package catalog

import (
	"time"

	"github.com/angelmondragon/suuq-marketplace/pkg/enums"
	"github.com/shopspring/decimal"
)

const placeholderImage = "https://via.placeholder.com/300x200"

var seedEpoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// SeedProducts returns a fresh copy of the starter catalog.
func SeedProducts() []Product {
	was := decimal.RequireFromString("7.99")
	products := []Product{
		{
			ID:            1,
			Name:          "Canjeero Somaliyeed",
			Description:   "Canjeero Somaliyeed oo asaliga ah",
			Price:         decimal.RequireFromString("5.99"),
			OriginalPrice: &was,
			Category:      "food",
			StoreID:       1,
			Rating:        4.5,
			Reviews:       24,
			Stock:         10,
		},
		{
			ID:          2,
			Name:        "Macawiis",
			Description: "Macawiis cas ah oo cajiib ah",
			Price:       decimal.RequireFromString("12.99"),
			Category:    "clothing",
			StoreID:     2,
			Rating:      4.2,
			Reviews:     18,
			Stock:       25,
		},
		{
			ID:          3,
			Name:        "Gambaro",
			Description: "Gambaro casri ah oo smartphone ah",
			Price:       decimal.RequireFromString("299.99"),
			Category:    "electronics",
			StoreID:     3,
			Rating:      4.8,
			Reviews:     45,
			Stock:       5,
		},
	}
	for i := range products {
		products[i].Image = placeholderImage
		products[i].Status = enums.ProductStatusPublished
		products[i].CreatedAt = seedEpoch.Add(time.Duration(i) * time.Hour)
		products[i].UpdatedAt = products[i].CreatedAt
	}
	return products
}

// SeedStores returns the storefront directory.
func SeedStores() []Store {
	return []Store{
		{ID: 1, Name: "Dukaan Macaan", Description: "Cuntada Somaliyeed ee asaliga ah", Location: "Muqdisho", Rating: 4.7, ProductsCount: 15, Category: "food", Image: placeholderImage},
		{ID: 2, Name: "Bazaar Clothing", Description: "Dharka Somaliyeed ee ugu fiican", Location: "Hargeysa", Rating: 4.5, ProductsCount: 42, Category: "clothing", Image: placeholderImage},
		{ID: 3, Name: "Somali Tech", Description: "Qalabka elektarooniga ah", Location: "Kismaayo", Rating: 4.9, ProductsCount: 28, Category: "electronics", Image: placeholderImage},
	}
}

// SeedCategories returns the browse categories.
func SeedCategories() []Category {
	return []Category{
		{ID: 1, Name: "Dharka", Icon: "fa-tshirt", Count: 156},
		{ID: 2, Name: "Cuntada", Icon: "fa-utensils", Count: 89},
		{ID: 3, Name: "Tiknooloji", Icon: "fa-laptop", Count: 72},
		{ID: 4, Name: "Qalabka Guriga", Icon: "fa-home", Count: 103},
		{ID: 5, Name: "Jirrada", Icon: "fa-heart", Count: 64},
		{ID: 6, Name: "Gaadiidka", Icon: "fa-car", Count: 31},
	}
}
