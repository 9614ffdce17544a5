package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/validation"
	"github.com/iudanet/scholardesk/pkg/api"
)

// Login выполняет аутентификацию и сохраняет токены и пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) Result[api.LoginResponse] {
	if err := validation.Struct(req); err != nil {
		return fail[api.LoginResponse](err)
	}

	res := decode[api.LoginResponse](c.Request(ctx, "/auth/login/", RequestConfig{
		Method: http.MethodPost,
		Body:   req,
	}))
	if res.Error != nil {
		return res
	}
	if res.Data == nil || res.Data.Tokens.Access == "" {
		return fail[api.LoginResponse](errors.New("login response carries no tokens"))
	}

	if err := c.session.SaveTokens(ctx, res.Data.Tokens); err != nil {
		return fail[api.LoginResponse](fmt.Errorf("failed to save tokens: %w", err))
	}
	if err := c.session.SaveUser(ctx, res.Data.User); err != nil {
		return fail[api.LoginResponse](fmt.Errorf("failed to save user: %w", err))
	}
	return res
}

// Logout отзывает refresh token на сервере (best effort) и очищает сессию и кэш
func (c *Client) Logout(ctx context.Context) Result[api.MessageResponse] {
	if refresh := c.session.RefreshToken(ctx); refresh != "" {
		res := c.Request(ctx, "/auth/logout/", RequestConfig{
			Method: http.MethodPost,
			Body:   api.LogoutRequest{Refresh: refresh},
		})
		if res.Error != nil {
			c.log.Info("server logout failed, clearing local session anyway", zap.Error(res.Error))
		}
	}

	c.cache.Clear(ctx)
	if err := c.session.Clear(ctx); err != nil {
		return fail[api.MessageResponse](fmt.Errorf("failed to clear session: %w", err))
	}
	return success(&api.MessageResponse{Message: "Logout successful"})
}

// RegisterStudent регистрирует нового студента
func (c *Client) RegisterStudent(ctx context.Context, req api.StudentRegisterRequest) Result[api.RegisterResponse] {
	return write[api.RegisterResponse](ctx, c, http.MethodPost, "/auth/student/register/", req)
}

// Profile запрашивает профиль и обновляет сохраненного пользователя
func (c *Client) Profile(ctx context.Context) Result[api.User] {
	res := get[api.User](ctx, c, "/auth/profile/", nil)
	if res.Error != nil || res.Data == nil {
		return res
	}
	if err := c.session.SaveUser(ctx, *res.Data); err != nil {
		c.log.Warn("failed to store profile", zap.Error(err))
	}
	return res
}
