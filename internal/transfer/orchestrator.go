package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"catalog-migrator/internal/catalog"
	"catalog-migrator/internal/domain"
	"catalog-migrator/internal/woocommerce"
)

// ProductSource reads the products selected for a run.
type ProductSource interface {
	ListProducts(ctx context.Context, sel domain.Selector) ([]domain.Product, error)
}

// RemoteCatalog is the subset of the WooCommerce client a run writes to.
type RemoteCatalog interface {
	catalog.CategoryAPI
	CreateProduct(ctx context.Context, product *domain.RemoteProduct) (int64, error)
	CreateVariation(ctx context.Context, productID int64, variation domain.Variation) (int64, error)
}

// Request describes one transfer run. An empty RunID is filled in.
type Request struct {
	RunID    string
	Selector domain.Selector
	Type     domain.ProductType
}

// Orchestrator moves products from the source catalog to WooCommerce.
type Orchestrator struct {
	source       ProductSource
	remote       RemoteCatalog
	imageBaseURL string
	concurrency  int
	logger       *zap.Logger
}

// New creates an Orchestrator. concurrency bounds how many products are
// transferred at once; 1 transfers them strictly one after another.
func New(source ProductSource, remote RemoteCatalog, imageBaseURL string, concurrency int, logger *zap.Logger) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:       source,
		remote:       remote,
		imageBaseURL: imageBaseURL,
		concurrency:  concurrency,
		logger:       logger,
	}
}

// Run transfers every selected product. A failing product or variation is
// recorded in the report and the run moves on; only a failure to read the
// source aborts the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if _, err := domain.ParseProductType(string(req.Type)); err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("run_id", req.RunID))

	report := &Report{
		RunID:     req.RunID,
		Selector:  req.Selector,
		Type:      req.Type,
		StartedAt: time.Now().UTC(),
	}

	products, err := o.source.ListProducts(ctx, req.Selector)
	if err != nil {
		return nil, fmt.Errorf("transfer: reading source products: %w", err)
	}
	total := len(products)
	log.Info("Transfer started",
		zap.Int64("category_id", req.Selector.CategoryID),
		zap.Int("limit", req.Selector.Limit),
		zap.String("type", string(req.Type)),
		zap.Int("products", total),
	)

	// One resolver per run: the category cache never outlives it.
	mapper := catalog.NewMapper(catalog.NewResolver(o.remote, log), o.imageBaseURL)

	report.Products = make([]ProductResult, total)
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			report.Products[i] = o.transferProduct(ctx, log, mapper, p, req.Type)
			log.Info("Product processed",
				zap.Int("position", i+1),
				zap.Int("total", total),
				zap.String("name", p.Name),
				zap.String("status", string(report.Products[i].Status)),
			)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now().UTC()
	s := report.Summary()
	log.Info("Transfer finished",
		zap.Int("products_created", s.ProductsCreated),
		zap.Int("products_failed", s.ProductsFailed),
		zap.Int("variations_created", s.VariationsCreated),
		zap.Int("variations_failed", s.VariationsFailed),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (o *Orchestrator) transferProduct(ctx context.Context, log *zap.Logger, mapper *catalog.Mapper, p domain.Product, typ domain.ProductType) ProductResult {
	result := ProductResult{SourceID: p.ID, Name: p.Name}
	log = log.With(zap.Int64("source_id", p.ID), zap.String("name", p.Name))

	if err := ctx.Err(); err != nil {
		return failed(result, err)
	}

	body, err := mapper.Build(ctx, p, typ)
	if err != nil {
		log.Error("Product mapping failed", zap.Error(err))
		return failed(result, err)
	}

	remoteID, err := o.remote.CreateProduct(ctx, body)
	if err != nil {
		log.Error("Product creation failed", zap.Error(err), zap.Bool("retryable", woocommerce.IsRetryable(err)))
		return failed(result, err)
	}
	result.RemoteID = remoteID
	result.Status = StatusCreated
	log.Info("Product created", zap.Int64("remote_id", remoteID))

	for _, v := range body.Variations {
		result.Variations = append(result.Variations, o.createVariation(ctx, log, remoteID, v))
	}
	return result
}

func (o *Orchestrator) createVariation(ctx context.Context, log *zap.Logger, productID int64, v domain.Variation) VariationResult {
	vr := VariationResult{RegularPrice: v.RegularPrice}
	if len(v.Attributes) > 0 {
		vr.Attribute = v.Attributes[0].Name
		vr.Option = v.Attributes[0].Option
	}

	id, err := o.remote.CreateVariation(ctx, productID, v)
	if err != nil {
		vr.Status = StatusFailed
		vr.Error = err.Error()
		vr.Retryable = woocommerce.IsRetryable(err)
		log.Error("Variation creation failed", zap.String("option", vr.Option), zap.Error(err))
		return vr
	}
	vr.RemoteID = id
	vr.Status = StatusCreated
	log.Info("Variation added", zap.String("option", vr.Option), zap.String("regular_price", vr.RegularPrice))
	return vr
}

func failed(result ProductResult, err error) ProductResult {
	result.Status = StatusFailed
	result.Error = err.Error()
	result.Retryable = woocommerce.IsRetryable(err)
	return result
}
