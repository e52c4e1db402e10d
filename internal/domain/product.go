package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SourceIDMetaKey is the meta_data key that links a WooCommerce product back
// to the Opencart product it was created from.
const SourceIDMetaKey = "opencart_id"

// ProductType selects the shape of the product sent to WooCommerce.
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// ParseProductType converts a configuration or request value into a ProductType.
func ParseProductType(s string) (ProductType, error) {
	switch ProductType(s) {
	case ProductTypeSimple, ProductTypeVariable:
		return ProductType(s), nil
	}
	return "", fmt.Errorf("domain: unknown product type %q", s)
}

// Product is an Opencart product together with everything joined onto it.
// Image and Gallery hold image references relative to the store's image
// directory, exactly as they are stored in Opencart.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Model       string          `json:"model"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"` // HTML-escaped as stored by Opencart
	Image       string          `json:"image,omitempty"`
	Gallery     []string        `json:"gallery,omitempty"`
	Categories  []string        `json:"categories,omitempty"`
	Options     []OptionRow     `json:"options,omitempty"`
}

// OptionRow is one (product × option × value) combination.
type OptionRow struct {
	Name          string              `json:"option_name"`
	Value         string              `json:"option_value"`
	Price         decimal.NullDecimal `json:"price"`
	PricePrefix   string              `json:"price_prefix"`
	StockQuantity *int64              `json:"stock_quantity,omitempty"`
}

// Delta returns the row's price delta, zero when the column was NULL.
func (r OptionRow) Delta() decimal.Decimal {
	if !r.Price.Valid {
		return decimal.Zero
	}
	return r.Price.Decimal
}

// Stock returns the row's stock quantity, zero when the column was NULL.
func (r OptionRow) Stock() int64 {
	if r.StockQuantity == nil {
		return 0
	}
	return *r.StockQuantity
}

// Selector picks which Opencart products a transfer run reads.
// Zero values disable the corresponding filter.
type Selector struct {
	CategoryID int64 `json:"category_id"`
	Limit      int   `json:"limit"`
}
