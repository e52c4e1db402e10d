package domain

// Attribute is a product attribute as WooCommerce expects it on product create.
type Attribute struct {
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
}

// VariationAttribute assigns a single attribute value to a variation.
type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Variation is the body of POST /products/{id}/variations.
// Attributes always holds exactly one assignment: each Opencart option row
// becomes its own variation, combinations across options are not built.
type Variation struct {
	Attributes    []VariationAttribute `json:"attributes"`
	RegularPrice  string               `json:"regular_price"`
	StockQuantity int64                `json:"stock_quantity"`
	ManageStock   bool                 `json:"manage_stock"`
}

// CategoryRef links a product to a category by id.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// ImageRef points WooCommerce at an image to sideload.
type ImageRef struct {
	Src string `json:"src"`
}

// MetaData is one custom field stored on the product.
type MetaData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// RemoteCategory is a WooCommerce product category.
type RemoteCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
}

// RemoteProduct is the body of POST /products. Variations are created
// separately once the parent product exists, so they are not serialized.
type RemoteProduct struct {
	Name              string               `json:"name"`
	Type              ProductType          `json:"type"`
	Description       string               `json:"description"`
	ShortDescription  string               `json:"short_description"`
	SKU               string               `json:"sku,omitempty"`
	RegularPrice      string               `json:"regular_price,omitempty"`
	Categories        []CategoryRef        `json:"categories"`
	Images            []ImageRef           `json:"images"`
	Attributes        []Attribute          `json:"attributes"`
	DefaultAttributes []VariationAttribute `json:"default_attributes,omitempty"`
	MetaData          []MetaData           `json:"meta_data"`

	Variations []Variation `json:"-"`
}
