package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/cache"
	"github.com/iudanet/scholardesk/internal/validation"
)

// getCached serves a GET from the cache or fetches and stores it for ttl
func getCached[T any](ctx context.Context, c *Client, endpoint string, query url.Values, ttl time.Duration) Result[T] {
	key := cache.Key(endpoint, query)
	if raw, hit := c.cache.Get(ctx, key); hit {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return success(&v)
		}
		c.log.Debug("cached value does not decode, refetching", zap.String("key", key))
	}

	res := c.Request(ctx, endpoint, RequestConfig{Method: http.MethodGet, Query: query})
	out := decode[T](res)
	if out.Error == nil && res.Data != nil {
		c.cache.Set(ctx, key, *res.Data, ttl)
	}
	return out
}

// get is an uncached GET
func get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) Result[T] {
	return decode[T](c.Request(ctx, endpoint, RequestConfig{Method: http.MethodGet, Query: query}))
}

// write validates body and sends it with method; the cache is cleared by Request
func write[T any](ctx context.Context, c *Client, method, endpoint string, body any) Result[T] {
	if body != nil {
		if err := validation.Struct(body); err != nil {
			return fail[T](err)
		}
	}
	return decode[T](c.Request(ctx, endpoint, RequestConfig{Method: method, Body: body}))
}
