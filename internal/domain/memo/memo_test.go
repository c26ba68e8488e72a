package memo_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/halfpace/internal/domain/memo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given a new cache", t, func() {
		c := memo.New()
		calls := 0
		compute := func() (any, error) {
			calls++
			return calls, nil
		}

		Convey("When the same key is requested twice", func() {
			k := memo.NewKey("v1", "stats", "M30", "M")
			a, err := c.Do(k, compute)
			So(err, ShouldBeNil)
			b, err := c.Do(k, compute)
			So(err, ShouldBeNil)

			Convey("Then the cached value is returned", func() {
				So(a, ShouldEqual, 1)
				So(b, ShouldEqual, 1)
				So(calls, ShouldEqual, 1)
				So(c.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the dataset version changes", func() {
			_, _ = c.Do(memo.NewKey("v1", "stats", "M30"), compute)
			v, _ := c.Do(memo.NewKey("v2", "stats", "M30"), compute)

			Convey("Then the value is recomputed", func() {
				So(v, ShouldEqual, 2)
				So(calls, ShouldEqual, 2)
			})

			Convey("And Retain drops the old version", func() {
				c.Retain("v2")
				So(c.Size(), ShouldEqual, 1)
				_, ok := c.Get(memo.NewKey("v1", "stats", "M30"))
				So(ok, ShouldBeFalse)
				_, ok = c.Get(memo.NewKey("v2", "stats", "M30"))
				So(ok, ShouldBeTrue)
			})

			Convey("And late results for the dropped version are not stored", func() {
				c.Retain("v2")
				stale := memo.NewKey("v1", "ranking", "M30")
				v, err := c.Do(stale, func() (any, error) { return "late", nil })
				So(err, ShouldBeNil)
				So(v, ShouldEqual, "late")
				_, ok := c.Get(stale)
				So(ok, ShouldBeFalse)
				So(c.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the computation fails", func() {
			boom := errors.New("boom")
			k := memo.NewKey("v1", "rank")
			_, err := c.Do(k, func() (any, error) { return nil, boom })

			Convey("Then the error is returned and nothing is cached", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(c.Size(), ShouldEqual, 0)
				v, err := c.Do(k, compute)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 1)
			})
		})

		Convey("When using the typed helper", func() {
			v, err := memo.Typed(c, memo.NewKey("v1", "top", 10), func() ([]int, error) {
				return []int{1, 2, 3}, nil
			})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []int{1, 2, 3})

			_, err = memo.Typed(c, memo.NewKey("v1", "bad"), func() (string, error) {
				return "", errors.New("nope")
			})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given keys built from parameters", t, func() {
		So(memo.NewKey("v", "op", 1, "M", 2.5).Params, ShouldEqual, "1|M|2.5")
		So(memo.NewKey("v", "op"), ShouldResemble, memo.Key{Version: "v", Op: "op"})
	})
}

func TestCacheEviction(t *testing.T) {
	Convey("Given a bounded cache", t, func() {
		c := memo.New(memo.WithMaxSize(2))
		value := func(v int) func() (any, error) {
			return func() (any, error) { return v, nil }
		}
		_, _ = c.Do(memo.NewKey("v", "op", 1), value(1))
		_, _ = c.Do(memo.NewKey("v", "op", 2), value(2))
		_, _ = c.Do(memo.NewKey("v", "op", 3), value(3))

		Convey("Then the oldest entry is evicted", func() {
			So(c.Size(), ShouldEqual, 2)
			_, ok := c.Get(memo.NewKey("v", "op", 1))
			So(ok, ShouldBeFalse)
			_, ok = c.Get(memo.NewKey("v", "op", 3))
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given a bounded cache with a recently read entry", t, func() {
		c := memo.New(memo.WithMaxSize(2))
		value := func(v int) func() (any, error) {
			return func() (any, error) { return v, nil }
		}
		_, _ = c.Do(memo.NewKey("v", "op", 1), value(1))
		_, _ = c.Do(memo.NewKey("v", "op", 2), value(2))
		_, _ = c.Do(memo.NewKey("v", "op", 1), value(1))
		_, _ = c.Do(memo.NewKey("v", "op", 3), value(3))

		Convey("Then the least recently used entry is evicted", func() {
			So(c.Size(), ShouldEqual, 2)
			_, ok := c.Get(memo.NewKey("v", "op", 1))
			So(ok, ShouldBeTrue)
			_, ok = c.Get(memo.NewKey("v", "op", 2))
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an unbounded cache", t, func() {
		c := memo.New(memo.WithMaxSize(0))
		for i := 0; i < 5000; i++ {
			_, _ = c.Do(memo.NewKey("v", "op", i), func() (any, error) { return i, nil })
		}
		So(c.Size(), ShouldEqual, 5000)
	})
}

func TestCacheObserver(t *testing.T) {
	Convey("Given a cache with an observer", t, func() {
		hits, misses := map[string]int{}, map[string]int{}
		c := memo.New(memo.WithObserver(func(op string, hit bool) {
			if hit {
				hits[op]++
			} else {
				misses[op]++
			}
		}))
		k := memo.NewKey("v", "winners")
		for i := 0; i < 3; i++ {
			_, _ = c.Do(k, func() (any, error) { return "x", nil })
		}

		Convey("Then lookups are reported", func() {
			So(misses["winners"], ShouldEqual, 1)
			So(hits["winners"], ShouldEqual, 2)
		})
	})
}

func TestCacheConcurrency(t *testing.T) {
	Convey("Given concurrent callers of one key", t, func() {
		c := memo.New()
		var computed atomic.Int32
		release := make(chan struct{})
		k := memo.NewKey("v", "slow")

		var wg sync.WaitGroup
		results := make([]any, 20)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], _ = c.Do(k, func() (any, error) {
					computed.Add(1)
					<-release
					return "done", nil
				})
			}(i)
		}
		close(release)
		wg.Wait()

		Convey("Then every caller gets the same value", func() {
			for _, r := range results {
				So(r, ShouldEqual, "done")
			}
			So(computed.Load(), ShouldBeLessThanOrEqualTo, int32(20))
			So(c.Size(), ShouldEqual, 1)
		})
	})

	Convey("Given concurrent callers of many keys", t, func() {
		c := memo.New(memo.WithMaxSize(64))
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					_, _ = c.Do(memo.NewKey("v", "op", fmt.Sprint(g, "-", i)), func() (any, error) { return i, nil })
				}
			}(g)
		}
		wg.Wait()
		So(c.Size(), ShouldEqual, 64)
	})
}
