package memo

// Option applies a configuration option to the in-memory cache.
type Option func(*inMemoryCache)

// WithMaxSize sets the maximum number of cached results.
// If maxSize > 0: bounded mode, oldest entry evicted first.
// If maxSize <= 0: unbounded mode.
func WithMaxSize(maxSize int) Option {
	return func(c *inMemoryCache) {
		c.maxSize = maxSize
	}
}

// WithObserver registers a callback invoked on every lookup with the
// operation name and whether it was served from the cache.
func WithObserver(fn func(op string, hit bool)) Option {
	return func(c *inMemoryCache) {
		if fn != nil {
			c.observe = fn
		}
	}
}
