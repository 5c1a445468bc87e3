package engine

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/inamate/graphselect/internal/curve"
)

// RangeCache keeps normalization ranges across gestures until the document
// changes or the entries expire.
type RangeCache struct {
	c *cache.Cache
}

var _ curve.RangeCache = (*RangeCache)(nil)

func NewRangeCache(ttl time.Duration) *RangeCache {
	return &RangeCache{c: cache.New(ttl, 2*ttl)}
}

func (r *RangeCache) Get(key string) (curve.Range, bool) {
	v, ok := r.c.Get(key)
	if !ok {
		return curve.Range{}, false
	}
	rng, ok := v.(curve.Range)
	return rng, ok
}

func (r *RangeCache) Set(key string, rng curve.Range) {
	r.c.SetDefault(key, rng)
}

// Invalidate drops the cached range of one curve.
func (r *RangeCache) Invalidate(key string) {
	r.c.Delete(key)
}

// Flush drops every cached range.
func (r *RangeCache) Flush() {
	r.c.Flush()
}

func (r *RangeCache) Len() int {
	return r.c.ItemCount()
}
