package store

import (
	"context"

	"catalog-migrator/internal/domain"
)

// ProductReader defines the read operations the migrator needs from the
// source catalog. All queries are scoped to the configured language.
type ProductReader interface {
	// ListProducts returns the selected products with images, options and
	// category names already attached.
	ListProducts(ctx context.Context, sel domain.Selector) ([]domain.Product, error)
	ProductImages(ctx context.Context, productID int64) ([]string, error)
	ProductOptions(ctx context.Context, productID int64) ([]domain.OptionRow, error)
	ProductCategoryNames(ctx context.Context, productID int64) ([]string, error)
	Ping(ctx context.Context) error
}
