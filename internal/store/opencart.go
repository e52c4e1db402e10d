package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"catalog-migrator/internal/domain"
)

// Predefined errors for store operations
var (
	ErrInvalidSelector = errors.New("store: invalid product selector")
)

var _ ProductReader = (*OpencartStore)(nil)

// OpencartStore implements ProductReader on top of an Opencart schema.
type OpencartStore struct {
	db         *sql.DB
	driver     string
	prefix     string
	languageID int64
}

// NewOpencartStore creates a new OpencartStore. driver is the database/sql
// driver name the connection was opened with; for "postgres" the store
// rewrites ? placeholders to $n.
func NewOpencartStore(db *sql.DB, driver, tablePrefix string, languageID int64) *OpencartStore {
	return &OpencartStore{
		db:         db,
		driver:     driver,
		prefix:     tablePrefix,
		languageID: languageID,
	}
}

// Close closes the underlying connection pool.
func (s *OpencartStore) Close() error {
	return s.db.Close()
}

func (s *OpencartStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// t qualifies an Opencart table name with the configured prefix.
func (s *OpencartStore) t(name string) string {
	return s.prefix + name
}

// rebind converts ? placeholders into the driver's bind syntax.
func (s *OpencartStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *OpencartStore) ListProducts(ctx context.Context, sel domain.Selector) ([]domain.Product, error) {
	if sel.CategoryID < 0 || sel.Limit < 0 {
		return nil, ErrInvalidSelector
	}

	products, err := s.listProductRows(ctx, sel)
	if err != nil {
		return nil, err
	}

	for i := range products {
		p := &products[i]
		if p.Gallery, err = s.ProductImages(ctx, p.ID); err != nil {
			return nil, err
		}
		if p.Options, err = s.ProductOptions(ctx, p.ID); err != nil {
			return nil, err
		}
		if p.Categories, err = s.ProductCategoryNames(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (s *OpencartStore) listProductRows(ctx context.Context, sel domain.Selector) ([]domain.Product, error) {
	var query strings.Builder
	fmt.Fprintf(&query, `
		SELECT p.product_id, pd.name, p.model, p.price, pd.description, p.image
		FROM %s p
		JOIN %s pd ON p.product_id = pd.product_id`, s.t("product"), s.t("product_description"))

	args := []interface{}{s.languageID}
	if sel.CategoryID > 0 {
		fmt.Fprintf(&query, `
		JOIN %s pc ON p.product_id = pc.product_id`, s.t("product_to_category"))
	}
	query.WriteString(`
		WHERE pd.language_id = ?`)
	if sel.CategoryID > 0 {
		query.WriteString(` AND pc.category_id = ?`)
		args = append(args, sel.CategoryID)
	}
	query.WriteString(`
		ORDER BY p.product_id`)
	if sel.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, sel.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var (
			p           domain.Product
			description sql.NullString
			image       sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Model, &p.Price, &description, &image); err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		p.Description = description.String
		p.Image = image.String
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

// ProductImages returns the gallery image paths of a product, main image excluded.
// Empty paths are dropped.
func (s *OpencartStore) ProductImages(ctx context.Context, productID int64) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT image FROM %s
		WHERE product_id = ?
		ORDER BY sort_order`, s.t("product_image"))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), productID)
	if err != nil {
		return nil, fmt.Errorf("store: ProductImages failed for product %d: %w", productID, err)
	}
	defer rows.Close()

	images := []string{}
	for rows.Next() {
		var image sql.NullString
		if err := rows.Scan(&image); err != nil {
			return nil, fmt.Errorf("store: ProductImages failed to scan row: %w", err)
		}
		if image.Valid && image.String != "" {
			images = append(images, image.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ProductImages iteration error: %w", err)
	}
	return images, nil
}

// ProductOptions returns one row per product option value. The join can fan
// out, so the same option name/value pair may appear more than once.
func (s *OpencartStore) ProductOptions(ctx context.Context, productID int64) ([]domain.OptionRow, error) {
	query := fmt.Sprintf(`
		SELECT od.name AS option_name, ovd.name AS option_value,
			pov.price, pov.price_prefix, pov.quantity AS stock_quantity
		FROM %s pov
		JOIN %s ovd ON pov.option_value_id = ovd.option_value_id
		JOIN %s po ON pov.product_option_id = po.product_option_id
		JOIN %s od ON po.option_id = od.option_id
		WHERE po.product_id = ? AND ovd.language_id = ? AND od.language_id = ?
		ORDER BY po.product_option_id, pov.product_option_value_id`,
		s.t("product_option_value"), s.t("option_value_description"),
		s.t("product_option"), s.t("option_description"))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), productID, s.languageID, s.languageID)
	if err != nil {
		return nil, fmt.Errorf("store: ProductOptions failed for product %d: %w", productID, err)
	}
	defer rows.Close()

	options := []domain.OptionRow{}
	for rows.Next() {
		var (
			o        domain.OptionRow
			price    decimal.NullDecimal
			prefix   sql.NullString
			quantity sql.NullInt64
		)
		if err := rows.Scan(&o.Name, &o.Value, &price, &prefix, &quantity); err != nil {
			return nil, fmt.Errorf("store: ProductOptions failed to scan row: %w", err)
		}
		o.Price = price
		o.PricePrefix = prefix.String
		if quantity.Valid {
			q := quantity.Int64
			o.StockQuantity = &q
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ProductOptions iteration error: %w", err)
	}
	return options, nil
}

// ProductCategoryNames returns the names of every category the product is linked to.
func (s *OpencartStore) ProductCategoryNames(ctx context.Context, productID int64) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT cd.name FROM %s pc
		JOIN %s cd ON pc.category_id = cd.category_id
		WHERE pc.product_id = ? AND cd.language_id = ?`,
		s.t("product_to_category"), s.t("category_description"))

	rows, err := s.db.QueryContext(ctx, s.rebind(query), productID, s.languageID)
	if err != nil {
		return nil, fmt.Errorf("store: ProductCategoryNames failed for product %d: %w", productID, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: ProductCategoryNames failed to scan row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ProductCategoryNames iteration error: %w", err)
	}
	return names, nil
}
