package api

// AdminUser is an entry of the admin-user directory
type AdminUser struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id,omitempty"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsStaff      bool   `json:"is_staff"`
	IsSuperuser  bool   `json:"is_superuser"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// IsSuper reports super-admin rights
func (a AdminUser) IsSuper() bool {
	return a.IsSuperAdmin || a.IsSuperuser
}

// TargetID is the id PATCH and DELETE address: user_id when the listing
// carries it, the entry id otherwise
func (a AdminUser) TargetID() int64 {
	if a.UserID != 0 {
		return a.UserID
	}
	return a.ID
}

// CreateAdminRequest представляет запрос на создание администратора.
// Только super admin может выставить IsSuperAdmin
type CreateAdminRequest struct {
	User         Account `json:"user" validate:"required"`
	IsSuperAdmin bool    `json:"is_super_admin"`
}

// UpdateAdminRequest is a partial (PATCH) update; nil fields are left unchanged
type UpdateAdminRequest struct {
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Password     *string `json:"password,omitempty" validate:"omitempty,min=6"`
	IsSuperAdmin *bool   `json:"is_super_admin,omitempty"`
}

// UserExportQuery filters the users CSV export
type UserExportQuery struct {
	Role   string
	Fields []string
}
