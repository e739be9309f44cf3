package nominatim

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/event-map-index/internal/domain"
	"github.com/couchcryptid/event-map-index/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache that lives for
// a single run. Only found addresses are stored; errors and misses always
// reach the inner geocoder.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lon float64) (*domain.Address, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(methodReverse, key, func() (*domain.Address, error) {
		return c.inner.Reverse(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) Search(ctx context.Context, text string) (*domain.Address, error) {
	key := "search:" + text
	return c.lookup(methodSearch, key, func() (*domain.Address, error) {
		return c.inner.Search(ctx, text)
	})
}

func (c *CachedGeocoder) lookup(method, key string, fetch func() (*domain.Address, error)) (*domain.Address, error) {
	if addr, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		copied := *addr
		return &copied, nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	addr, err := fetch()
	if err != nil || addr == nil {
		return addr, err
	}
	stored := *addr
	c.cache.put(key, &stored)
	return addr, nil
}

// lruCache is a thread-safe LRU cache of addresses.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
}

type entry struct {
	key   string
	value *domain.Address
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache) get(key string) (*domain.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (c *lruCache) put(key string, value *domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
