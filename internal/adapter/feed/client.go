package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/DataRozhlas/covid-obce/internal/domain"
	"github.com/DataRozhlas/covid-obce/internal/observability"
)

// ErrUnexpectedStatus is returned when the feed answers with a status other
// than 200 or 304.
var ErrUnexpectedStatus = errors.New("unexpected feed status")

// maxBodySize caps the payload read from the feed.
const maxBodySize = 64 << 20

// Response is one answer of the feed.
type Response struct {
	Rows []domain.RawRow
	ETag string

	// NotModified is set on 304 responses; Rows is empty then.
	NotModified bool
}

// Client downloads the municipal feed over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. Transient failures are retried up to
// maxRetries times.
func NewClient(url string, timeout time.Duration, maxRetries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: uint64(maxRetries),
		newBackOff: defaultBackOff,
		metrics:    metrics,
		logger:     logger,
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Fetch downloads the complete payload.
func (c *Client) Fetch(ctx context.Context) (domain.Payload, error) {
	resp, err := c.Get(ctx, "")
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.Payload{Rows: resp.Rows}, nil
}

// Get downloads the payload, sending If-None-Match when etag is set.
func (c *Client) Get(ctx context.Context, etag string) (Response, error) {
	var (
		out     Response
		attempt int
	)
	op := func() error {
		attempt++
		resp, err := c.do(ctx, etag)
		if err != nil {
			var permanent *backoff.PermanentError
			if !errors.As(err, &permanent) {
				c.logger.Warn("feed request failed, retrying", "attempt", attempt, "error", err)
			}
			return err
		}
		out = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return Response{}, fmt.Errorf("fetch feed: %w", err)
	}
	return out, nil
}

// do performs a single request. Errors that retrying cannot fix are wrapped
// with backoff.Permanent.
func (c *Client) do(ctx context.Context, etag string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Response{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return Response{}, backoff.Permanent(ctx.Err())
		}
		return Response{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		c.metrics.FeedRequests.WithLabelValues("not_modified").Inc()
		return Response{ETag: etag, NotModified: true}, nil

	case resp.StatusCode == http.StatusOK:
		rows, err := DecodeRows(io.LimitReader(resp.Body, maxBodySize))
		if errors.Is(err, domain.ErrEmptyPayload) {
			c.metrics.FeedRequests.WithLabelValues("empty").Inc()
			return Response{}, backoff.Permanent(err)
		}
		if err != nil {
			c.metrics.FeedRequests.WithLabelValues("error").Inc()
			return Response{}, backoff.Permanent(err)
		}
		c.metrics.FeedRequests.WithLabelValues("success").Inc()
		return Response{Rows: rows, ETag: resp.Header.Get("ETag")}, nil

	default:
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, body)
		if retryable(resp.StatusCode) {
			return Response{}, err
		}
		return Response{}, backoff.Permanent(err)
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
