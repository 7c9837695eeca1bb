package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"listing-billing-be/internal/apperror"
	"listing-billing-be/internal/entity"
	"listing-billing-be/internal/repository/unitofwork"
	"listing-billing-be/pkg/entitlement/dependency"

	"github.com/patrickmn/go-cache"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// CachedReader serves customer-facing catalog lookups. It only returns active
// records, collapses concurrent misses for the same key and is flushed on
// every catalog write. Returned values are shared and must not be mutated.
type CachedReader struct {
	uowFactory unitofwork.RepositoryFactory
	resolver   *dependency.Resolver
	cache      *cache.Cache
	group      singleflight.Group
	generation atomic.Uint64

	// mu orders a load's store against Invalidate.
	mu sync.Mutex
}

func NewCachedReader(uowFactory unitofwork.RepositoryFactory, resolver *dependency.Resolver, ttl time.Duration) *CachedReader {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedReader{
		uowFactory: uowFactory,
		resolver:   resolver,
		cache:      cache.New(ttl, 2*ttl),
	}
}

func (r *CachedReader) PlanByCode(ctx context.Context, code string) (*entity.PlanDefinition, error) {
	v, err := r.load(ctx, "plan:"+code, func(uow unitofwork.UnitOfWork) (interface{}, error) {
		plan, err := uow.PlanRepository().FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if plan == nil || !plan.IsActive {
			return nil, apperror.NotFound("plan", code)
		}
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.PlanDefinition), nil
}

func (r *CachedReader) UpgradeByCode(ctx context.Context, code string) (*entity.UpgradeDefinition, error) {
	v, err := r.load(ctx, "upgrade:"+code, func(uow unitofwork.UnitOfWork) (interface{}, error) {
		upgrade, err := uow.UpgradeRepository().FindByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if upgrade == nil || !upgrade.IsActive {
			return nil, apperror.NotFound("upgrade", code)
		}
		return upgrade, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.UpgradeDefinition), nil
}

func (r *CachedReader) UpgradeTree(ctx context.Context, code string) (*dependency.Node, error) {
	v, err := r.load(ctx, "tree:"+code, func(uow unitofwork.UnitOfWork) (interface{}, error) {
		return r.resolver.BuildTree(ctx, uow, code)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dependency.Node), nil
}

// Invalidate drops every cached entry. Loads already in flight are not stored.
func (r *CachedReader) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation.Inc()
	r.cache.Flush()
}

func (r *CachedReader) load(ctx context.Context, key string, fetch func(uow unitofwork.UnitOfWork) (interface{}, error)) (interface{}, error) {
	if v, found := r.cache.Get(key); found {
		return v, nil
	}
	gen := r.generation.Load()
	v, err, _ := r.group.Do(strconv.FormatUint(gen, 10)+"/"+key, func() (interface{}, error) {
		v, err := fetch(r.uowFactory.NewUnitOfWork(ctx))
		if err != nil {
			return nil, err
		}
		r.store(gen, key, v)
		return v, nil
	})
	return v, err
}

// store caches v unless an Invalidate ran since the load read gen.
func (r *CachedReader) store(gen uint64, key string, v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation.Load() == gen {
		r.cache.Set(key, v, cache.DefaultExpiration)
	}
}
