package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iudanet/scholardesk/pkg/api"
)

// AdminScholarships возвращает список стипендий для админки
func (c *Client) AdminScholarships(ctx context.Context, q api.ScholarshipQuery) Result[api.ScholarshipPage] {
	return getCached[api.ScholarshipPage](ctx, c, "/admin/scholarships/", q.Values(), c.ttl.AdminScholarships)
}

// AdminScholarship возвращает стипендию со служебными полями
func (c *Client) AdminScholarship(ctx context.Context, id int64) Result[api.Scholarship] {
	return getCached[api.Scholarship](ctx, c, adminScholarshipPath(id), nil, c.ttl.Scholarship)
}

// UpdateAdminScholarship обновляет стипендию через админский endpoint
func (c *Client) UpdateAdminScholarship(ctx context.Context, id int64, in api.ScholarshipInput) Result[api.Scholarship] {
	return write[api.Scholarship](ctx, c, http.MethodPut, adminScholarshipPath(id), in)
}

// DeleteAdminScholarship удаляет стипендию
func (c *Client) DeleteAdminScholarship(ctx context.Context, id int64) Result[api.MessageResponse] {
	return write[api.MessageResponse](ctx, c, http.MethodDelete, adminScholarshipPath(id)+"delete/", nil)
}

// ExportScholarshipsCSV выгружает все стипендии в CSV
func (c *Client) ExportScholarshipsCSV(ctx context.Context) Result[[]byte] {
	return c.Download(ctx, "/admin/scholarships/export/", nil)
}

// Statistics возвращает сводку для дашборда
func (c *Client) Statistics(ctx context.Context) Result[api.Statistics] {
	return getCached[api.Statistics](ctx, c, "/admin/scholarships/statistics/", nil, c.ttl.Statistics)
}

// Admins возвращает список администраторов
func (c *Client) Admins(ctx context.Context) Result[[]api.AdminUser] {
	return getCached[[]api.AdminUser](ctx, c, "/admins/", nil, c.ttl.Admins)
}

// CreateAdmin создает администратора
func (c *Client) CreateAdmin(ctx context.Context, req api.CreateAdminRequest) Result[api.AdminUser] {
	return write[api.AdminUser](ctx, c, http.MethodPost, "/admins/", req)
}

// UpdateAdmin частично обновляет администратора
func (c *Client) UpdateAdmin(ctx context.Context, id int64, req api.UpdateAdminRequest) Result[api.AdminUser] {
	return write[api.AdminUser](ctx, c, http.MethodPatch, adminPath(id), req)
}

// DeleteAdmin удаляет администратора
func (c *Client) DeleteAdmin(ctx context.Context, id int64) Result[api.MessageResponse] {
	return write[api.MessageResponse](ctx, c, http.MethodDelete, adminPath(id), nil)
}

// ExportUsersCSV выгружает пользователей в CSV, опционально по роли и набору полей
func (c *Client) ExportUsersCSV(ctx context.Context, q api.UserExportQuery) Result[[]byte] {
	query := url.Values{}
	if q.Role != "" {
		query.Set("role", q.Role)
	}
	if len(q.Fields) > 0 {
		query.Set("fields", strings.Join(q.Fields, ","))
	}
	return c.Download(ctx, "/admin/users/export/", query)
}

func adminScholarshipPath(id int64) string {
	return fmt.Sprintf("/admin/scholarships/%d/", id)
}

func adminPath(id int64) string {
	return fmt.Sprintf("/admins/%d/", id)
}
