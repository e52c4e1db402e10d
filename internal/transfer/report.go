package transfer

import (
	"time"

	"catalog-migrator/internal/domain"
)

// Status is the outcome of a single create call.
type Status string

const (
	StatusCreated Status = "created"
	StatusFailed  Status = "failed"
)

// VariationResult is the outcome of one POST /products/{id}/variations.
type VariationResult struct {
	Attribute    string `json:"attribute"`
	Option       string `json:"option"`
	RegularPrice string `json:"regular_price"`
	RemoteID     int64  `json:"remote_id,omitempty"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
	Retryable    bool   `json:"retryable,omitempty"`
}

// ProductResult is the outcome of one product, including its variations.
type ProductResult struct {
	SourceID   int64             `json:"source_id"`
	Name       string            `json:"name"`
	RemoteID   int64             `json:"remote_id,omitempty"`
	Status     Status            `json:"status"`
	Error      string            `json:"error,omitempty"`
	Retryable  bool              `json:"retryable,omitempty"`
	Variations []VariationResult `json:"variations,omitempty"`
}

// Report describes a finished transfer run. Products are listed in the order
// the source returned them.
type Report struct {
	RunID      string             `json:"run_id"`
	Selector   domain.Selector    `json:"selector"`
	Type       domain.ProductType `json:"type"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Products   []ProductResult    `json:"products"`
}

// Summary counts the outcomes recorded in a Report.
type Summary struct {
	Products          int `json:"products"`
	ProductsCreated   int `json:"products_created"`
	ProductsFailed    int `json:"products_failed"`
	Variations        int `json:"variations"`
	VariationsCreated int `json:"variations_created"`
	VariationsFailed  int `json:"variations_failed"`
}

// Summary tallies products and variations by status.
func (r *Report) Summary() Summary {
	var s Summary
	for _, p := range r.Products {
		s.Products++
		if p.Status == StatusCreated {
			s.ProductsCreated++
		} else {
			s.ProductsFailed++
		}
		for _, v := range p.Variations {
			s.Variations++
			if v.Status == StatusCreated {
				s.VariationsCreated++
			} else {
				s.VariationsFailed++
			}
		}
	}
	return s
}

// Failed reports whether any product or variation failed.
func (r *Report) Failed() bool {
	s := r.Summary()
	return s.ProductsFailed > 0 || s.VariationsFailed > 0
}
