package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an upstream promotional event: a start time and the products
// offered while it runs. Sales are transient; only the winning product
// of a day survives as a DayRecord.
type Sale struct {
	Name     string    `json:"name"`
	Begins   time.Time `json:"begins"`
	Products []Product `json:"products"`
}

// Product is an item offered within a Sale.
type Product struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"image_urls"`
	URL         string   `json:"url"`
	Skus        []Sku    `json:"skus"`
}

// Sku is a purchasable variant of a Product.
type Sku struct {
	SalePrice decimal.Decimal `json:"sale_price"`
}

// MaxPrice returns the highest sale price across the product's variants.
// A product with no variants prices at zero.
func (p Product) MaxPrice() decimal.Decimal {
	highest := decimal.Zero
	for _, sku := range p.Skus {
		if sku.SalePrice.GreaterThan(highest) {
			highest = sku.SalePrice
		}
	}
	return highest
}
