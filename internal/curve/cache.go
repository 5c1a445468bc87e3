package curve

import "sync"

// GestureCache is a RangeCache scoped to a single selection gesture.
type GestureCache struct {
	mu     sync.RWMutex
	ranges map[string]Range
}

func NewGestureCache() *GestureCache {
	return &GestureCache{ranges: make(map[string]Range)}
}

func (g *GestureCache) Get(key string) (Range, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.ranges[key]
	return r, ok
}

func (g *GestureCache) Set(key string, r Range) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ranges[key] = r
}

// Len returns the number of cached ranges.
func (g *GestureCache) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.ranges)
}
