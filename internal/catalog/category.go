package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"catalog-migrator/internal/domain"
)

// Unresolved is the category id returned when a name could not be found or
// created. WooCommerce treats it as "no category".
const Unresolved int64 = 0

// CategoryAPI is the subset of the WooCommerce client the resolver needs.
type CategoryAPI interface {
	SearchCategories(ctx context.Context, name string) ([]domain.RemoteCategory, error)
	CreateCategory(ctx context.Context, name string, parent int64) (*domain.RemoteCategory, error)
}

// Resolver maps category names to WooCommerce category ids, creating missing
// categories on the way. Successful lookups are cached for the lifetime of the
// Resolver, which is one transfer run. It is safe for concurrent use; at most
// one lookup per name is in flight at a time.
type Resolver struct {
	api      CategoryAPI
	logger   *zap.Logger
	validate *validator.Validate

	mu    sync.RWMutex
	cache map[string]int64
	group singleflight.Group
}

// NewResolver creates a Resolver with an empty cache. Use one per run.
func NewResolver(api CategoryAPI, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		api:      api,
		logger:   logger,
		validate: validator.New(),
		cache:    make(map[string]int64),
	}
}

func (r *Resolver) cached(name string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[name]
	return id, ok
}

func (r *Resolver) store(name string, id int64) {
	r.mu.Lock()
	r.cache[name] = id
	r.mu.Unlock()
}

// Resolve returns the id of the category called name, creating it under
// parentID when no existing category matches case-insensitively. Failures are
// logged and yield Unresolved; they are not cached.
func (r *Resolver) Resolve(ctx context.Context, name string, parentID int64) int64 {
	if err := r.validate.Var(name, "required"); err != nil {
		r.logger.Warn("Category name is empty, leaving product uncategorized")
		return Unresolved
	}
	if id, ok := r.cached(name); ok {
		return id
	}

	// Flights share the cache key, so one name never has two creates in
	// flight whatever parent the callers ask for.
	v, _, _ := r.group.Do(name, func() (interface{}, error) {
		// A flight for the same name may have finished between the cache
		// miss above and joining this one.
		if id, ok := r.cached(name); ok {
			return id, nil
		}
		return r.lookupOrCreate(ctx, name, parentID), nil
	})
	return v.(int64)
}

func (r *Resolver) lookupOrCreate(ctx context.Context, name string, parentID int64) int64 {
	candidates, err := r.api.SearchCategories(ctx, name)
	if err != nil {
		// Treated as not found: fall through to create.
		r.logger.Debug("Category search failed", zap.String("category", name), zap.Error(err))
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Name, name) {
			r.store(name, c.ID)
			return c.ID
		}
	}

	created, err := r.api.CreateCategory(ctx, name, parentID)
	if err != nil {
		r.logger.Error("Category could not be created", zap.String("category", name), zap.Error(err))
		return Unresolved
	}
	r.store(name, created.ID)
	r.logger.Info("Category created", zap.String("category", name), zap.Int64("id", created.ID))
	return created.ID
}

// Len returns the number of cached names.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
