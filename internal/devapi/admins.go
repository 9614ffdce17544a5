package devapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/pkg/api"
)

// handleListAdmins обрабатывает GET /admins/
func (s *Server) handleListAdmins(w http.ResponseWriter, _ *http.Request) {
	s.sendJSON(w, http.StatusOK, s.store.Admins())
}

// handleCreateAdmin обрабатывает POST /admins/.
// is_super_admin может выставить только super admin
func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAdminRequest
	if !s.decode(w, r, &req) {
		return
	}
	actor, _ := userFrom(r.Context())
	if req.IsSuperAdmin && !actor.IsSuper() {
		s.sendError(w, http.StatusForbidden, "Only super admins can create super admins")
		return
	}

	user, err := s.store.CreateUser(NewUser{
		Joined:       s.now(),
		Account:      req.User,
		UserType:     api.UserTypeAdmin,
		IsStaff:      true,
		IsSuperAdmin: req.IsSuperAdmin,
	})
	switch {
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("failed to create admin", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.log.Info("admin created", zap.Int64("user_id", user.ID), zap.Int64("by", actor.ID))
	s.sendJSON(w, http.StatusCreated, api.AdminUser{
		ID:           user.ID,
		UserID:       user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsStaff:      user.IsStaff,
		IsSuperuser:  user.IsSuperuser,
		IsSuperAdmin: user.IsSuperAdmin,
	})
}

// protectedTarget отвечает 404/403, если администратора нет или он super admin
func (s *Server) protectedTarget(w http.ResponseWriter, id int64, action string) bool {
	target, err := s.store.User(id)
	if err != nil || !target.IsAdmin() {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return false
	}
	if target.IsSuper() {
		s.sendError(w, http.StatusForbidden, "Super admins cannot be "+action)
		return false
	}
	return true
}

// handleUpdateAdmin обрабатывает PATCH /admins/{id}/
func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok || !s.protectedTarget(w, id, "edited") {
		return
	}
	var req api.UpdateAdminRequest
	if !s.decode(w, r, &req) {
		return
	}

	admin, err := s.store.UpdateAdmin(id, req)
	switch {
	case errors.Is(err, ErrNotFound):
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	case errors.Is(err, ErrEmailTaken):
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("failed to update admin", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.sendJSON(w, http.StatusOK, admin)
}

// handleDeleteAdmin обрабатывает DELETE /admins/{id}/ и отвечает 204
func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok || !s.protectedTarget(w, id, "deleted") {
		return
	}
	if err := s.store.DeleteUser(id); err != nil {
		s.sendDetail(w, http.StatusNotFound, "Not found")
		return
	}
	s.log.Info("admin deleted", zap.Int64("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}
