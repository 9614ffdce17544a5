package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/pkg/api"
)

// HeaderRequestID связывает первую попытку запроса и повтор после refresh
const HeaderRequestID = "X-Request-ID"

// RequestConfig describes one API call.
// Body is sent as-is when it is []byte or string, otherwise encoded as JSON
type RequestConfig struct {
	Body    any
	Headers http.Header
	Query   url.Values
	Method  string
}

// attempt is the state of a call: the first send, or the single retry after a
// refresh. There is no state after attemptRetry
type attempt int

const (
	attemptFirst attempt = iota + 1
	attemptRetry
)

// call is a prepared request that can be sent more than once
type call struct {
	headers   http.Header
	method    string
	endpoint  string
	url       string
	requestID string
	body      []byte
}

type response struct {
	header http.Header
	body   []byte
	status int
}

func (r *response) isJSON() bool {
	mt, _, err := mime.ParseMediaType(r.header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func (r *response) success() bool {
	return r.status >= 200 && r.status < 300
}

// apiError builds the error of a non-2xx response: "error" field, then
// "detail", then the status code
func (r *response) apiError() *APIError {
	if r.isJSON() {
		var body api.ErrorResponse
		if err := json.Unmarshal(r.body, &body); err == nil {
			if body.Error != "" {
				return &APIError{Status: r.status, Message: body.Error}
			}
			if body.Detail != "" {
				return &APIError{Status: r.status, Message: body.Detail}
			}
		}
	}
	return &APIError{Status: r.status, Message: httpErrorMessage(r.status)}
}

// Request выполняет запрос к endpoint с текущим access token.
// Data is nil for 204 and for non-JSON success bodies
func (c *Client) Request(ctx context.Context, endpoint string, cfg RequestConfig) Result[json.RawMessage] {
	res := c.request(ctx, endpoint, cfg)
	c.observe(methodOf(cfg), res.Error)

	if res.Error == nil && isMutation(methodOf(cfg)) {
		// Любая успешная запись делает кэш чтений недействительным целиком
		c.cache.Clear(ctx)
	}
	return res
}

func (c *Client) request(ctx context.Context, endpoint string, cfg RequestConfig) Result[json.RawMessage] {
	cfg.Headers = withDefault(cfg.Headers, "Accept", "application/json")

	resp, err := c.execute(ctx, endpoint, cfg)
	if err != nil {
		return fail[json.RawMessage](err)
	}
	if !resp.success() {
		return fail[json.RawMessage](resp.apiError())
	}
	if resp.status == http.StatusNoContent || len(resp.body) == 0 || !resp.isJSON() {
		return success[json.RawMessage](nil)
	}
	if !json.Valid(resp.body) {
		return fail[json.RawMessage](errors.New("failed to decode response: invalid JSON"))
	}
	data := json.RawMessage(resp.body)
	return success(&data)
}

// Download выполняет GET и возвращает тело ответа без разбора (CSV выгрузки)
func (c *Client) Download(ctx context.Context, endpoint string, query url.Values) Result[[]byte] {
	cfg := RequestConfig{
		Method:  http.MethodGet,
		Query:   query,
		Headers: http.Header{"Accept": {"text/csv, */*"}},
	}

	resp, err := c.execute(ctx, endpoint, cfg)
	if err != nil {
		c.observe(cfg.Method, err)
		return fail[[]byte](err)
	}
	if !resp.success() {
		apiErr := resp.apiError()
		c.observe(cfg.Method, apiErr)
		return fail[[]byte](apiErr)
	}
	c.observe(cfg.Method, nil)
	body := resp.body
	return success(&body)
}

// execute runs the two-state sequence: send with the stored token; on a 401
// that carried a token, refresh once and resend. The second response is final
func (c *Client) execute(ctx context.Context, endpoint string, cfg RequestConfig) (*response, error) {
	prepared, err := c.prepare(endpoint, cfg)
	if err != nil {
		return nil, err
	}

	token := c.session.AccessToken(ctx)
	resp, err := c.send(ctx, prepared, token, attemptFirst)
	if err != nil || resp.status != http.StatusUnauthorized || token == "" {
		return resp, err
	}

	fresh, err := c.renewAccess(ctx, token)
	if err != nil {
		c.log.Warn("session expired",
			zap.String("path", endpoint),
			zap.String("request_id", prepared.requestID),
			zap.Error(err))
		return nil, ErrAuthFailed
	}
	return c.send(ctx, prepared, fresh, attemptRetry)
}

func (c *Client) prepare(endpoint string, cfg RequestConfig) (*call, error) {
	body, contentType, err := encodeBody(cfg.Body)
	if err != nil {
		return nil, err
	}

	headers := cfg.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if contentType != "" && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", contentType)
	}

	target := c.baseURL + endpoint
	if len(cfg.Query) > 0 {
		target += "?" + cfg.Query.Encode()
	}

	return &call{
		method:    methodOf(cfg),
		endpoint:  endpoint,
		url:       target,
		headers:   headers,
		body:      body,
		requestID: uuid.NewString(),
	}, nil
}

// send делает одну попытку. token == "" означает запрос без авторизации
func (c *Client) send(ctx context.Context, cl *call, token string, n attempt) (*response, error) {
	var bodyReader io.Reader
	if cl.body != nil {
		bodyReader = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range cl.headers {
		req.Header[k] = v
	}
	req.Header.Set(HeaderRequestID, cl.requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("api request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.endpoint),
			zap.Int("attempt", int(n)),
			zap.String("request_id", cl.requestID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.log.Debug("api request",
		zap.String("method", cl.method),
		zap.String("path", cl.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("attempt", int(n)),
		zap.String("request_id", cl.requestID),
		zap.Duration("duration", time.Since(start)))

	return &response{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

func (c *Client) observe(method string, err error) {
	var apiErr *APIError
	switch {
	case err == nil:
		c.metrics.ObserveRequest(method, metrics.OutcomeOK)
	case errors.Is(err, ErrAuthFailed):
		c.metrics.ObserveRequest(method, metrics.OutcomeAuth)
	case errors.As(err, &apiErr):
		c.metrics.ObserveRequest(method, metrics.OutcomeHTTPError)
	default:
		c.metrics.ObserveRequest(method, metrics.OutcomeError)
	}
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case json.RawMessage:
		return b, "application/json", nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, "application/json", nil
}

func methodOf(cfg RequestConfig) string {
	if cfg.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(cfg.Method)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func withDefault(h http.Header, key, value string) http.Header {
	if h.Get(key) != "" {
		return h
	}
	h = h.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	return h
}
