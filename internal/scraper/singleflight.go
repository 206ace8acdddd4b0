package scraper

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheWrapper de-duplicates concurrent fetches of the same page.
type CacheWrapper struct {
	group singleflight.Group
}

// NewCacheWrapper creates a new cache wrapper
func NewCacheWrapper() *CacheWrapper {
	return &CacheWrapper{}
}

// Do executes fn once per key among concurrent callers; the others wait and
// receive the same document. The leader's context drives the fetch.
func (c *CacheWrapper) Do(ctx context.Context, key string, fn func(ctx context.Context) (*RawDocument, error)) (*RawDocument, error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return fn(ctx)
	})
	if err != nil {
		return nil, err
	}
	doc, _ := v.(*RawDocument)
	return doc, nil
}

// Sleep waits for the specified duration, respecting context cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
