package formula

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type Builder func() (*SolverSet, error)

type cacheEntry struct {
	once sync.Once
	set  *SolverSet
	err  error
}

// Cache memoises solver sets per family name for its whole lifetime. Each
// family is built at most once; callers racing on a family that is still
// building wait for that build instead of starting their own. A failed
// build is cached like a successful one.
type Cache struct {
	log *logrus.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
	builds  atomic.Int64
}

func NewCache(log *logrus.Logger) *Cache {
	if log == nil {
		log = discard()
	}
	return &Cache{log: log, entries: make(map[string]*cacheEntry)}
}

func (c *Cache) Get(name string, build Builder) (*SolverSet, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		e = &cacheEntry{}
		c.entries[name] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		c.builds.Add(1)
		e.set, e.err = build()
		if e.err != nil {
			c.log.WithError(e.err).WithField("family", name).Error("derivation failed")
			return
		}
		c.log.WithField("family", name).Debug("solver set cached")
	})
	return e.set, e.err
}

// Load returns the solver set of f, deriving it on first use.
func (c *Cache) Load(f *Family) (*SolverSet, error) {
	return c.Get(f.Name, func() (*SolverSet, error) { return Derive(f, c.log) })
}

// Builds reports how many derivations have run.
func (c *Cache) Builds() int64 { return c.builds.Load() }

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
