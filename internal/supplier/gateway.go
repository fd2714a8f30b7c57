package supplier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"partflow/internal/cache"
	"partflow/internal/models"
	"partflow/internal/util"
)

// Gateway answers part lookups cache-first and never lets an upstream
// failure escape as anything but an error value.
type Gateway struct {
	cache     cache.Cache
	adapters  map[string]Adapter
	validDays int
	timeout   time.Duration
	testMode  bool
	logger    *zap.Logger
	now       func() time.Time
}

// GatewayOptions tune the gateway.
type GatewayOptions struct {
	CacheValidDays int
	// Timeout is the hard per-call upstream budget.
	Timeout time.Duration
	// TestMode serves cached entries regardless of age and tolerates a dead
	// upstream, for offline development against recorded lookups.
	TestMode bool
}

// NewGateway registers the given adapters under their names.
func NewGateway(partCache cache.Cache, adapters []Adapter, opts GatewayOptions) *Gateway {
	if opts.CacheValidDays <= 0 {
		opts.CacheValidDays = 7
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Gateway{
		cache:     partCache,
		adapters:  byName,
		validDays: opts.CacheValidDays,
		timeout:   opts.Timeout,
		testMode:  opts.TestMode,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// Adapter returns the registered adapter for a supplier tag.
func (g *Gateway) Adapter(supplier string) (Adapter, bool) {
	a, ok := g.adapters[supplier]
	return a, ok
}

// Fetch resolves a (supplier, key) pair to a SupplierPart.
//
// A valid cache entry short-circuits the upstream call. On a miss or expiry
// the adapter is called under the per-call budget and a success overwrites
// the cache. An upstream failure is returned even when a stale entry exists;
// only test mode serves cached data regardless of age.
func (g *Gateway) Fetch(ctx context.Context, supplier, key string) (models.SupplierPart, error) {
	ctx, span := util.StartSpan(ctx, "Gateway.Fetch")
	defer span.End()

	adapter, ok := g.adapters[supplier]
	if !ok {
		return models.SupplierPart{}, fmt.Errorf("unknown supplier: %s", supplier)
	}

	entry, cached, err := g.cache.Get(supplier, key)
	if err != nil {
		g.logger.Warn("Cache read failed",
			zap.String("supplier", supplier),
			zap.String("key", key),
			zap.Error(err))
		cached = false
	}
	if cached && (g.testMode || entry.Valid(g.now(), g.validDays)) {
		util.CacheHitsTotal.WithLabelValues(supplier).Inc()
		return entry.Part, nil
	}
	util.CacheMissesTotal.WithLabelValues(supplier).Inc()

	part, err := g.callUpstream(ctx, adapter, key)
	if err != nil {
		return models.SupplierPart{}, err
	}

	if err := g.cache.Put(supplier, key, models.CacheEntry{Part: part, FetchedAt: g.now()}); err != nil {
		g.logger.Warn("Cache write failed",
			zap.String("supplier", supplier),
			zap.String("key", key),
			zap.Error(err))
	}
	return part, nil
}

// Purge drops the cached entry for a (supplier, key) pair.
func (g *Gateway) Purge(supplier, key string) error {
	return g.cache.Purge(supplier, key)
}

func (g *Gateway) callUpstream(ctx context.Context, adapter Adapter, key string) (models.SupplierPart, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	util.UpstreamCallsTotal.WithLabelValues(adapter.Name()).Inc()
	start := time.Now()
	part, err := adapter.Fetch(ctx, key)
	util.UpstreamLatency.WithLabelValues(adapter.Name()).Observe(time.Since(start).Seconds())

	switch {
	case err == nil && part.Empty():
		err = models.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		// The per-call budget was exceeded; the part is unknowable, not
		// known-absent, but the contract collapses both into NotFound.
		err = fmt.Errorf("%s lookup timed out: %w", adapter.Name(), models.ErrNotFound)
	}
	if err != nil {
		util.UpstreamFailuresTotal.WithLabelValues(adapter.Name(), failureReason(err)).Inc()
		g.logger.Warn("Upstream lookup failed",
			zap.String("supplier", adapter.Name()),
			zap.String("key", key),
			zap.Error(err))
		return models.SupplierPart{}, err
	}
	return part, nil
}

func failureReason(err error) string {
	var transport *models.TransportError
	switch {
	case errors.As(err, &transport):
		return "transport"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	default:
		return "other"
	}
}
