package filter

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// compiledCache keeps recently compiled programs by expression text
type compiledCache struct {
	lru *lru.Cache[string, CompiledFilter]
}

func newCompiledCache(size int) (*compiledCache, error) {
	c, err := lru.New[string, CompiledFilter](size)
	if err != nil {
		return nil, err
	}
	return &compiledCache{lru: c}, nil
}

func (c *compiledCache) Get(expression string) (CompiledFilter, bool) {
	return c.lru.Get(expression)
}

func (c *compiledCache) Put(expression string, f CompiledFilter) {
	c.lru.Add(expression, f)
}

func (c *compiledCache) Clear() { c.lru.Purge() }

func (c *compiledCache) Size() int { return c.lru.Len() }
