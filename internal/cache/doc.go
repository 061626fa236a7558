// Package cache provides a small LRU cache for rasterized coverage masks.
//
//	c := cache.New[maskKey, *image.Alpha](1<<22, func(m *image.Alpha) int64 {
//	    return int64(len(m.Pix))
//	})
//	mask := c.GetOrCreate(key, rasterize)
//
// Entries are weighed by a caller-supplied cost, typically the pixel count
// of a mask, and the least recently used entries are evicted once the total
// cost exceeds the budget.
//
// A Cache is safe for concurrent use and must not be copied.
package cache
