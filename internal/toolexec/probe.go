package toolexec

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// probeCache memoizes PATH lookups. Checks sharing a tool (helm is probed by
// both the lint and the policy check) hit the cache, and concurrent probes
// for the same tool collapse into one lookup.
type probeCache struct {
	g  singleflight.Group
	mu sync.RWMutex
	m  map[string]bool
}

func (c *probeCache) available(tool string, probe func() bool) bool {
	c.mu.RLock()
	v, ok := c.m[tool]
	c.mu.RUnlock()
	if ok {
		return v
	}

	res, _, _ := c.g.Do(tool, func() (interface{}, error) {
		found := probe()
		c.mu.Lock()
		if c.m == nil {
			c.m = make(map[string]bool)
		}
		c.m[tool] = found
		c.mu.Unlock()
		return found, nil
	})
	return res.(bool)
}
