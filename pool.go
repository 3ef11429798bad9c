package zinc

import "github.com/google/uuid"

// fieldcachePool reuses child Fieldcaches for operators that iterate over
// domain entities (nodeset aggregates), so per-evaluation cache setup does
// not reallocate. Pooled caches are not registered with the manager: they
// live only within a single evaluate call.
type fieldcachePool struct {
	free   []*Fieldcache
	hits   uint64
	misses uint64
}

func (p *fieldcachePool) acquire(manager *Manager) *Fieldcache {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free = p.free[:n-1]
		p.hits++
		c.manager = manager
		return c
	}
	p.misses++
	return &Fieldcache{
		id:            uuid.NewString(),
		manager:       manager,
		locationStamp: 1,
		caches:        newValueCacheTable(),
	}
}

func (p *fieldcachePool) release(c *Fieldcache) {
	if c == nil {
		return
	}
	c.ClearLocation()
	// unregistered caches never hear about field removals, so drop the
	// per-field entries rather than retain them across evaluations
	c.caches.Clear()
	c.manager = nil
	p.free = append(p.free, c)
}

func (p *fieldcachePool) metrics() (hits, misses uint64) {
	return p.hits, p.misses
}
