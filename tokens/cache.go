package tokens

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedCounter memoizes an inner counter with a bounded LRU. The
// optimizer re-counts the same element and separator text many times while
// evaluating budget prefixes, so a small cache removes most encoder calls.
type CachedCounter struct {
	inner Counter
	cache *lru.Cache[string, int]
}

// NewCachedCounter wraps inner with an LRU of the given size.
func NewCachedCounter(inner Counter, size int) (*CachedCounter, error) {
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}
	return &CachedCounter{inner: inner, cache: cache}, nil
}

// Count returns the memoized token count of text.
func (c *CachedCounter) Count(text string) int {
	if n, ok := c.cache.Get(text); ok {
		return n
	}
	n := c.inner.Count(text)
	c.cache.Add(text, n)
	return n
}

// Encoding returns the inner counter's encoding name.
func (c *CachedCounter) Encoding() string {
	return c.inner.Encoding()
}
