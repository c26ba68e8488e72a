// Package memo caches query results keyed by dataset version, operation and
// parameters.
package memo

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const defaultMaxSize = 4096

// Key identifies one computation. Results for a different Version never match.
type Key struct {
	Version string
	Op      string
	Params  string
}

// NewKey builds a Key, joining params with "|".
func NewKey(version, op string, params ...any) Key {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Version: version, Op: op, Params: strings.Join(parts, "|")}
}

func (k Key) String() string {
	return k.Version + "/" + k.Op + "/" + k.Params
}

// Cache memoizes computations. Implementations are safe for concurrent use.
type Cache interface {
	// Do returns the cached value for key or runs fn once, even under
	// concurrent callers, and caches a successful result.
	Do(key Key, fn func() (any, error)) (any, error)

	// Get returns a cached value without computing.
	Get(key Key) (any, bool)

	// Retain drops every entry whose version differs from version. Later
	// results for other versions are returned but not stored.
	Retain(version string)

	Size() int64
}

type entry struct {
	key   Key
	value any
}

// inMemoryCache implements Cache with a map and a recency-ordered list.
type inMemoryCache struct {
	mu       sync.Mutex
	items    map[Key]*list.Element
	order    *list.List // front is most recently used
	retained string     // version kept by the last Retain, "" before any
	maxSize  int
	size     atomic.Int64
	group    singleflight.Group
	observe  func(op string, hit bool)
}

// New creates an in-memory cache with configuration options.
func New(opts ...Option) Cache {
	c := &inMemoryCache{
		maxSize: defaultMaxSize,
		observe: func(string, bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.items = make(map[Key]*list.Element)
	c.order = list.New()
	return c
}

// Typed wraps Cache.Do for a concrete result type.
func Typed[T any](c Cache, key Key, fn func() (T, error)) (T, error) {
	v, err := c.Do(key, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *inMemoryCache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*entry).value, true
	}
	return nil, false
}

func (c *inMemoryCache) Do(key Key, fn func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		c.observe(key.Op, true)
		return v, nil
	}
	c.observe(key.Op, false)

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Another flight may have stored it between Get and here.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.store(key, v)
		return v, nil
	})
	return v, err
}

func (c *inMemoryCache) store(key Key, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A computation that started on a snapshot replaced since.
	if c.retained != "" && key.Version != c.retained {
		return
	}
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).value = v
		c.order.MoveToFront(el)
		return
	}
	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictLeastRecent()
	}
	c.items[key] = c.order.PushFront(&entry{key: key, value: v})
	c.size.Add(1)
}

// evictLeastRecent must be called with c.mu held.
func (c *inMemoryCache) evictLeastRecent() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.size.Add(-1)
}

func (c *inMemoryCache) Retain(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retained = version
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if e := el.Value.(*entry); e.key.Version != version {
			c.order.Remove(el)
			delete(c.items, e.key)
			c.size.Add(-1)
		}
		el = next
	}
}

// Size returns the current number of entries.
func (c *inMemoryCache) Size() int64 {
	return c.size.Load()
}
