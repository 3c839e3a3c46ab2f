package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataRozhlas/covid-obce/internal/domain"
	"github.com/DataRozhlas/covid-obce/internal/observability"
)

type mockGetter struct {
	responses []Response
	errs      []error
	etags     []string
}

func (m *mockGetter) Get(_ context.Context, etag string) (Response, error) {
	i := len(m.etags)
	m.etags = append(m.etags, etag)
	if i < len(m.errs) && m.errs[i] != nil {
		return Response{}, m.errs[i]
	}
	return m.responses[i], nil
}

func newTestCache(inner *mockGetter) *CachedFetcher {
	return &CachedFetcher{inner: inner, metrics: observability.NewMetricsForTesting()}
}

func TestCachedFetcher_ServesCachedRowsOnNotModified(t *testing.T) {
	rows := []domain.RawRow{{"Praha", "Praha", "Praha", 1.0, 0.0, 0.0}}
	inner := &mockGetter{responses: []Response{
		{Rows: rows, ETag: testETag},
		{ETag: testETag, NotModified: true},
	}}
	c := newTestCache(inner)

	first, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, first.NotModified)
	assert.Equal(t, rows, first.Rows)

	second, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, second.NotModified)
	assert.Equal(t, rows, second.Rows)

	assert.Equal(t, []string{"", testETag}, inner.etags)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FeedCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FeedCache.WithLabelValues("miss")))
}

func TestCachedFetcher_ReplacesChangedPayload(t *testing.T) {
	v1 := []domain.RawRow{{"A", "", "a", 1.0, 0.0, 0.0}}
	v2 := []domain.RawRow{{"B", "", "b", 1.0, 0.0, 0.0}}
	inner := &mockGetter{responses: []Response{
		{Rows: v1, ETag: `"v1"`},
		{Rows: v2, ETag: `"v2"`},
		{ETag: `"v2"`, NotModified: true},
	}}
	c := newTestCache(inner)

	for range 3 {
		_, err := c.Fetch(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"", `"v1"`, `"v2"`}, inner.etags)
	assert.Equal(t, v2, c.rows)
}

func TestCachedFetcher_NoETagDisablesRevalidation(t *testing.T) {
	rows := []domain.RawRow{{"A", "", "a", 1.0, 0.0, 0.0}}
	inner := &mockGetter{responses: []Response{{Rows: rows}, {Rows: rows}}}
	c := newTestCache(inner)

	for range 2 {
		_, err := c.Fetch(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"", ""}, inner.etags)
}

func TestCachedFetcher_ErrorKeepsCache(t *testing.T) {
	rows := []domain.RawRow{{"A", "", "a", 1.0, 0.0, 0.0}}
	boom := errors.New("boom")
	inner := &mockGetter{
		responses: []Response{{Rows: rows, ETag: testETag}, {}, {ETag: testETag, NotModified: true}},
		errs:      []error{nil, boom},
	}
	c := newTestCache(inner)

	_, err := c.Fetch(context.Background())
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)

	payload, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, payload.NotModified)
	assert.Equal(t, rows, payload.Rows)
}
