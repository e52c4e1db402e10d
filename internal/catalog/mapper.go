package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"catalog-migrator/internal/domain"
)

var ErrUnknownProductType = errors.New("catalog: unknown product type")

// Mapper builds WooCommerce product bodies from Opencart products.
type Mapper struct {
	resolver     *Resolver
	imageBaseURL string
}

// NewMapper creates a Mapper. imageBaseURL is the Opencart storefront origin;
// image references are served from <imageBaseURL>/image/<ref>.
func NewMapper(resolver *Resolver, imageBaseURL string) *Mapper {
	return &Mapper{
		resolver:     resolver,
		imageBaseURL: strings.TrimSuffix(imageBaseURL, "/"),
	}
}

// Build assembles the product body for the given type.
//
// Every category name contributes a {id} entry, including unresolved ones
// (id 0). Simple products carry sku and regular_price and no variations.
// Variable products carry one variation per option row. In both modes the
// attributes are the aggregated option groups with variation=true, even
// though a simple product has nothing to vary.
func (m *Mapper) Build(ctx context.Context, p domain.Product, typ domain.ProductType) (*domain.RemoteProduct, error) {
	if typ != domain.ProductTypeSimple && typ != domain.ProductTypeVariable {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProductType, typ)
	}

	rp := &domain.RemoteProduct{
		Name:        p.Name,
		Type:        typ,
		Description: html.UnescapeString(p.Description),
		Categories:  m.categories(ctx, p.Categories),
		Images:      m.images(p),
		Attributes:  AggregateOptions(p.Options),
		MetaData: []domain.MetaData{
			{Key: domain.SourceIDMetaKey, Value: p.ID},
		},
	}

	switch typ {
	case domain.ProductTypeSimple:
		rp.SKU = p.Model
		rp.RegularPrice = FormatPrice(p.Price)
	case domain.ProductTypeVariable:
		rp.Variations = BuildVariations(p.Price, p.Options)
	}
	return rp, nil
}

func (m *Mapper) categories(ctx context.Context, names []string) []domain.CategoryRef {
	refs := make([]domain.CategoryRef, 0, len(names))
	for _, name := range names {
		refs = append(refs, domain.CategoryRef{ID: m.resolver.Resolve(ctx, name, 0)})
	}
	return refs
}

// images lists the main image first, then the gallery, skipping empty refs.
func (m *Mapper) images(p domain.Product) []domain.ImageRef {
	refs := make([]domain.ImageRef, 0, len(p.Gallery)+1)
	for _, ref := range append([]string{p.Image}, p.Gallery...) {
		if ref == "" {
			continue
		}
		refs = append(refs, domain.ImageRef{Src: m.ImageURL(ref)})
	}
	return refs
}

// ImageURL turns an Opencart image reference into an absolute URL.
func (m *Mapper) ImageURL(ref string) string {
	return m.imageBaseURL + "/image/" + strings.TrimPrefix(ref, "/")
}
