package devapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/scholardesk/pkg/api"
)

func createAdminReq(email string, super bool) api.CreateAdminRequest {
	return api.CreateAdminRequest{
		User: api.Account{
			Username:  email,
			Email:     email,
			Password:  "staff123",
			FirstName: "Grace",
			LastName:  "Hopper",
		},
		IsSuperAdmin: super,
	}
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	super := env.login(t, adminEmail, adminPassword)

	resp, body := env.do(t, http.MethodPost, "/admins/", super.Access, createAdminReq("staff@example.com", false))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	staff := decodeBody[api.AdminUser](t, body)
	assert.Equal(t, staff.ID, staff.UserID)
	assert.True(t, staff.IsStaff)
	assert.False(t, staff.IsSuper())

	staffTokens := env.login(t, "staff@example.com", "staff123")

	t.Run("list", func(t *testing.T) {
		resp, body := env.do(t, http.MethodGet, "/admins/", staffTokens.Access, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		admins := decodeBody[[]api.AdminUser](t, body)
		require.Len(t, admins, 2)
		assert.Equal(t, adminEmail, admins[0].Email)
		assert.True(t, admins[0].IsSuper())
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/admins/", super.Access, createAdminReq("STAFF@example.com", false))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("staff cannot create super admins", func(t *testing.T) {
		resp, body := env.do(t, http.MethodPost, "/admins/", staffTokens.Access, createAdminReq("x@example.com", true))
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Only super admins can create super admins"}`, string(body))
	})

	t.Run("staff can create staff", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodPost, "/admins/", staffTokens.Access, createAdminReq("y@example.com", false))
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("staff cannot edit", func(t *testing.T) {
		name := "Nope"
		resp, _ := env.do(t, http.MethodPatch, "/admins/2/", staffTokens.Access, api.UpdateAdminRequest{FirstName: &name})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("super admin edits staff", func(t *testing.T) {
		name := "Ada"
		resp, body := env.do(t, http.MethodPatch, "/admins/2/", super.Access, api.UpdateAdminRequest{FirstName: &name})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		updated := decodeBody[api.AdminUser](t, body)
		assert.Equal(t, "Ada", updated.FirstName)
		assert.Equal(t, "Hopper", updated.LastName)
	})

	t.Run("super admins are protected", func(t *testing.T) {
		name := "Changed"
		resp, body := env.do(t, http.MethodPatch, "/admins/1/", super.Access, api.UpdateAdminRequest{FirstName: &name})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Super admins cannot be edited"}`, string(body))

		resp, body = env.do(t, http.MethodDelete, "/admins/1/", super.Access, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.JSONEq(t, `{"error":"Super admins cannot be deleted"}`, string(body))
	})

	t.Run("delete", func(t *testing.T) {
		resp, body := env.do(t, http.MethodDelete, "/admins/2/", super.Access, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, body)

		resp, _ = env.do(t, http.MethodDelete, "/admins/2/", super.Access, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		// Токен удаленного пользователя больше не принимается
		resp, _ = env.do(t, http.MethodGet, "/auth/profile/", staffTokens.Access, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
