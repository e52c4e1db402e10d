package catalog

import (
	"github.com/shopspring/decimal"

	"catalog-migrator/internal/domain"
)

// Price computes a variation's price from the product's base price and an
// Opencart option value's delta/prefix pair:
//
//	"+"    base + delta
//	"-"    base - delta
//	other  delta if delta > 0, otherwise base
//
// The result is rounded to 2 places and is not clamped at zero.
func Price(base, delta decimal.Decimal, prefix string) decimal.Decimal {
	var p decimal.Decimal
	switch prefix {
	case "+":
		p = base.Add(delta)
	case "-":
		p = base.Sub(delta)
	default:
		if delta.IsPositive() {
			p = delta
		} else {
			p = base
		}
	}
	return p.Round(2)
}

// FormatPrice renders a price the way WooCommerce expects it: a string with
// exactly two decimals.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// BuildVariations turns every option row into one single-attribute variation,
// in input order. Rows of different options are never combined.
func BuildVariations(base decimal.Decimal, rows []domain.OptionRow) []domain.Variation {
	variations := make([]domain.Variation, 0, len(rows))
	for _, row := range rows {
		variations = append(variations, domain.Variation{
			Attributes: []domain.VariationAttribute{{
				Name:   row.Name,
				Option: row.Value,
			}},
			RegularPrice:  FormatPrice(Price(base, row.Delta(), row.PricePrefix)),
			StockQuantity: row.Stock(),
			ManageStock:   true,
		})
	}
	return variations
}
