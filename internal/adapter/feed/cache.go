package feed

import (
	"context"
	"sync"

	"github.com/DataRozhlas/covid-obce/internal/domain"
	"github.com/DataRozhlas/covid-obce/internal/observability"
)

// conditionalGetter is the part of Client the cache needs.
type conditionalGetter interface {
	Get(ctx context.Context, etag string) (Response, error)
}

// CachedFetcher wraps a Client and remembers the last delivery. When the feed
// answers 304 Not Modified the remembered rows are returned with
// Payload.NotModified set.
type CachedFetcher struct {
	inner   conditionalGetter
	metrics *observability.Metrics

	mu   sync.Mutex
	etag string
	rows []domain.RawRow
}

// NewCachedFetcher creates a cache decorator around a feed client.
func NewCachedFetcher(inner *Client, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, metrics: metrics}
}

// Fetch returns the current payload, asking the feed only for changes when a
// previous delivery carried an ETag.
func (c *CachedFetcher) Fetch(ctx context.Context) (domain.Payload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	etag := c.etag
	if c.rows == nil {
		etag = ""
	}

	resp, err := c.inner.Get(ctx, etag)
	if err != nil {
		return domain.Payload{}, err
	}

	if resp.NotModified && c.rows != nil {
		c.metrics.FeedCache.WithLabelValues("hit").Inc()
		return domain.Payload{Rows: c.rows, NotModified: true}, nil
	}
	c.metrics.FeedCache.WithLabelValues("miss").Inc()

	// Only remember deliveries that can be revalidated.
	if resp.ETag != "" {
		c.etag, c.rows = resp.ETag, resp.Rows
	} else {
		c.etag, c.rows = "", nil
	}
	return domain.Payload{Rows: resp.Rows}, nil
}
