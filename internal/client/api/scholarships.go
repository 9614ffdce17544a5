package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iudanet/scholardesk/pkg/api"
)

// Scholarships ищет стипендии. Сервер может ответить страницей или массивом
func (c *Client) Scholarships(ctx context.Context, q api.ScholarshipQuery) Result[api.ScholarshipPage] {
	return getCached[api.ScholarshipPage](ctx, c, "/scholarships/", q.Values(), c.ttl.Scholarships)
}

// Scholarship возвращает одну стипендию
func (c *Client) Scholarship(ctx context.Context, id int64) Result[api.Scholarship] {
	return getCached[api.Scholarship](ctx, c, scholarshipPath(id), nil, c.ttl.Scholarship)
}

// CreateScholarship создает стипендию
func (c *Client) CreateScholarship(ctx context.Context, in api.ScholarshipInput) Result[api.Scholarship] {
	return write[api.Scholarship](ctx, c, http.MethodPost, "/scholarships/", in)
}

// UpdateScholarship полностью заменяет стипендию
func (c *Client) UpdateScholarship(ctx context.Context, id int64, in api.ScholarshipInput) Result[api.Scholarship] {
	return write[api.Scholarship](ctx, c, http.MethodPut, scholarshipPath(id), in)
}

func scholarshipPath(id int64) string {
	return fmt.Sprintf("/scholarships/%d/", id)
}
