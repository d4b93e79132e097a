package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents one registered shop customer, keyed by display name.
type Customer struct {
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Category is the closed set of product categories.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryClothing    Category = "Clothing"
	CategoryHome        Category = "Home"
	CategorySports      Category = "Sports"
	CategoryOther       Category = "Other"
)

// Categories lists every valid category in menu order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHome,
	CategorySports,
	CategoryOther,
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is one catalog entry, keyed by name. Stock never goes negative.
type Product struct {
	Name     string          `json:"name"`
	Category Category        `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
}

// PurchaseItem is one product/quantity pair inside a purchase. Product name
// and unit price are snapshots taken when the line was added, so later
// catalog edits do not rewrite history.
type PurchaseItem struct {
	Product   string          `json:"product"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Purchase is an immutable record of one committed purchase.
type Purchase struct {
	ID        string          `json:"id"`
	Customer  string          `json:"customer"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []PurchaseItem  `json:"items"`
	Total     decimal.Decimal `json:"total"`
}
