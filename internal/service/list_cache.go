package service

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/pkg/cache"
	"github.com/Payphone-Digital/content-api/pkg/circuit"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

// ListCacheStats is reported by the cache management endpoint
type ListCacheStats struct {
	Enabled bool           `json:"enabled"`
	Backend string         `json:"backend"`
	TTL     string         `json:"ttl"`
	Hits    int64          `json:"hits"`
	Misses  int64          `json:"misses"`
	Breaker *circuit.Stats `json:"breaker,omitempty"`
}

// ListCache memoizes list pages per table and descriptor. Entries of a table
// share the prefix content:list:<table>: so writes can drop them at once.
// Keys also carry the table's generation, bumped on every invalidation, so a
// load that began before a write stores under a key no later read asks for.
type ListCache struct {
	pages       *cache.Loader[*listquery.Envelope]
	cursors     *cache.Loader[*listquery.CursorEnvelope]
	generations sync.Map // table -> *atomic.Uint64
	ttl         time.Duration
	enabled     bool
	backend     string
	breaker     *circuit.Breaker
	hits        atomic.Int64
	misses      atomic.Int64
}

type ListCacheOptions struct {
	Enabled bool
	TTL     time.Duration
	Backend string
	// Breaker guards a remote backend; nil for in-process caches
	Breaker *circuit.Breaker
}

func NewListCache(pages cache.Cache[*listquery.Envelope], cursors cache.Cache[*listquery.CursorEnvelope], opts ListCacheOptions) *ListCache {
	lc := &ListCache{
		pages:   cache.NewLoader(pages),
		cursors: cache.NewLoader(cursors),
		ttl:     opts.TTL,
		enabled: opts.Enabled,
		backend: opts.Backend,
		breaker: opts.Breaker,
	}
	lc.pages.OnError = lc.reportBackendError
	lc.cursors.OnError = lc.reportBackendError
	return lc
}

func tablePrefix(table string) string {
	return constants.CacheKeyList + table + ":"
}

func (lc *ListCache) generation(table string) *atomic.Uint64 {
	g, _ := lc.generations.LoadOrStore(table, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

func (lc *ListCache) key(table, kind string, v any) (string, error) {
	fp, err := listquery.Fingerprint(v)
	if err != nil {
		return "", err
	}
	gen := strconv.FormatUint(lc.generation(table).Load(), 10)
	return tablePrefix(table) + gen + ":" + kind + ":" + fp, nil
}

// List returns the cached page for d or loads and stores it
func (lc *ListCache) List(ctx context.Context, table string, d listquery.Descriptor, load func(context.Context) (*listquery.Envelope, error)) (*listquery.Envelope, bool, error) {
	if lc == nil || !lc.enabled {
		env, err := load(ctx)
		return env, false, err
	}
	key, err := lc.key(table, "page", d)
	if err != nil {
		env, err := load(ctx)
		return env, false, err
	}
	env, hit, err := lc.pages.GetOrSet(ctx, key, lc.ttl, load)
	lc.count(hit, err)
	return env, hit, err
}

// ListAfter is List for cursor pages
func (lc *ListCache) ListAfter(ctx context.Context, table string, q listquery.CursorQuery, load func(context.Context) (*listquery.CursorEnvelope, error)) (*listquery.CursorEnvelope, bool, error) {
	if lc == nil || !lc.enabled {
		env, err := load(ctx)
		return env, false, err
	}
	key, err := lc.key(table, "cursor", q)
	if err != nil {
		env, err := load(ctx)
		return env, false, err
	}
	env, hit, err := lc.cursors.GetOrSet(ctx, key, lc.ttl, load)
	lc.count(hit, err)
	return env, hit, err
}

// Invalidate drops every cached page of table
func (lc *ListCache) Invalidate(ctx context.Context, table string) (int, error) {
	if lc == nil || !lc.enabled {
		return 0, nil
	}
	lc.generation(table).Add(1)
	prefix := tablePrefix(table)

	n, err := lc.pages.Cache().DeletePrefix(ctx, prefix)
	if err == nil {
		var m int
		m, err = lc.cursors.Cache().DeletePrefix(ctx, prefix)
		n += m
	}
	if err != nil {
		lc.reportBackendError("invalidate", prefix, err)
		return n, err
	}

	logger.InfoWithContext(ctx, "List cache invalidated").
		String("table", table).
		Int("deleted_count", n).
		Log()
	return n, nil
}

// Purge drops expired entries of in-process backends
func (lc *ListCache) Purge() int {
	if lc == nil {
		return 0
	}
	purged := 0
	for _, c := range []any{lc.pages.Cache(), lc.cursors.Cache()} {
		if p, ok := c.(interface{ Purge() int }); ok {
			purged += p.Purge()
		}
	}
	return purged
}

func (lc *ListCache) Stats() ListCacheStats {
	stats := ListCacheStats{
		Enabled: lc.enabled,
		Backend: lc.backend,
		TTL:     lc.ttl.String(),
		Hits:    lc.hits.Load(),
		Misses:  lc.misses.Load(),
	}
	if lc.breaker != nil {
		s := lc.breaker.Stats()
		stats.Breaker = &s
	}
	return stats
}

func (lc *ListCache) Close() error {
	err := lc.pages.Cache().Close()
	if cerr := lc.cursors.Cache().Close(); err == nil {
		err = cerr
	}
	return err
}

func (lc *ListCache) count(hit bool, err error) {
	switch {
	case err != nil:
	case hit:
		lc.hits.Add(1)
	default:
		lc.misses.Add(1)
	}
}

func (lc *ListCache) reportBackendError(op, key string, err error) {
	logger.GetOptimizedLogger().WithContext(context.Background()).
		Warn("List cache backend unavailable").
		String("operation", op).
		String("key", key).
		String("backend", lc.backend).
		Err(err).
		Log()
}
