package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/client/metrics"
	"github.com/iudanet/scholardesk/pkg/api"
)

const (
	refreshPath = "/auth/token/refresh/"
	refreshKey  = "refresh"
)

// RefreshToken обменивает refresh token на новый access token.
// On failure the session is cleared
func (c *Client) RefreshToken(ctx context.Context) Result[api.TokenPair] {
	pair, err := c.sharedRefresh(ctx, "")
	if err != nil {
		return fail[api.TokenPair](err)
	}
	return success(&pair)
}

// renewAccess returns an access token to retry with after stale got a 401.
// If another caller already replaced stale, its token is reused without a refresh
func (c *Client) renewAccess(ctx context.Context, stale string) (string, error) {
	pair, err := c.sharedRefresh(ctx, stale)
	if err != nil {
		return "", err
	}
	return pair.Access, nil
}

// sharedRefresh: одновременные вызовы ждут один и тот же запрос.
// Непустой stale сверяется с сохраненным токеном внутри общего вызова
func (c *Client) sharedRefresh(ctx context.Context, stale string) (api.TokenPair, error) {
	v, err, _ := c.refresh.Do(refreshKey, func() (any, error) {
		// Отмена контекста одного из ожидающих не должна обрывать общий refresh
		ctx := context.WithoutCancel(ctx)
		if stale != "" {
			if current := c.session.AccessToken(ctx); current != "" && current != stale {
				c.metrics.ObserveRefresh(metrics.RefreshReused)
				return api.TokenPair{Access: current, Refresh: c.session.RefreshToken(ctx)}, nil
			}
		}
		return c.doRefresh(ctx)
	})
	if err != nil {
		return api.TokenPair{}, err
	}
	return v.(api.TokenPair), nil
}

func (c *Client) doRefresh(ctx context.Context) (api.TokenPair, error) {
	refresh := c.session.RefreshToken(ctx)
	if refresh == "" {
		c.metrics.ObserveRefresh(metrics.RefreshNoToken)
		c.clearSession(ctx)
		return api.TokenPair{}, ErrNoRefreshToken
	}

	pair, err := c.exchange(ctx, refresh)
	if err != nil {
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		c.clearSession(ctx)
		return api.TokenPair{}, err
	}

	if err := c.session.SaveTokens(ctx, pair); err != nil {
		c.metrics.ObserveRefresh(metrics.RefreshFailed)
		c.clearSession(ctx)
		return api.TokenPair{}, fmt.Errorf("failed to save tokens: %w", err)
	}

	c.metrics.ObserveRefresh(metrics.RefreshOK)
	c.log.Debug("access token refreshed", zap.Bool("refresh_rotated", pair.Refresh != refresh))
	return pair, nil
}

// exchange отправляет refresh token без заголовка Authorization
func (c *Client) exchange(ctx context.Context, refresh string) (api.TokenPair, error) {
	prepared, err := c.prepare(refreshPath, RequestConfig{
		Method:  http.MethodPost,
		Body:    api.RefreshRequest{Refresh: refresh},
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return api.TokenPair{}, err
	}

	resp, err := c.send(ctx, prepared, "", attemptFirst)
	if err != nil {
		return api.TokenPair{}, fmt.Errorf("token refresh failed: %w", err)
	}
	if !resp.success() {
		return api.TokenPair{}, fmt.Errorf("token refresh failed: %w", resp.apiError())
	}

	var body api.RefreshResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return api.TokenPair{}, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.Access == "" {
		return api.TokenPair{}, errors.New("token refresh failed: empty access token")
	}

	// Refresh token сохраняем прежним, если сервер не прислал новый
	pair := api.TokenPair{Access: body.Access, Refresh: refresh}
	if body.Refresh != "" {
		pair.Refresh = body.Refresh
	}
	return pair, nil
}

// clearSession выходит из сессии так же, как Logout: токены, пользователь и кэш
func (c *Client) clearSession(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		c.log.Error("failed to clear session", zap.Error(err))
	}
	c.cache.Clear(ctx)
}
