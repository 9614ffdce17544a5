package devapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/iudanet/scholardesk/internal/validation"
	"github.com/iudanet/scholardesk/pkg/api"
)

const maxBodySize = 1 << 20

// decode читает JSON тело и проверяет его теги validate.
// При ошибке ответ уже отправлен
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.log.Debug("failed to decode request", zap.String("path", r.URL.Path), zap.Error(err))
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// issue выпускает пару токенов и запоминает refresh
func (s *Server) issue(user api.User) (api.TokenPair, error) {
	access, err := s.tokens.Access(user.ID, user.UserType)
	if err != nil {
		return api.TokenPair{}, err
	}
	refresh, expires := s.tokens.Refresh()
	s.store.SaveRefresh(refresh, user.ID, expires)
	return api.TokenPair{Access: access, Refresh: refresh}, nil
}

// handleLogin обрабатывает POST /auth/login/
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.store.Authenticate(req.Email, req.Password)
	if err != nil {
		s.metrics.logins.WithLabelValues("failed").Inc()
		s.log.Info("login failed", zap.String("email", req.Email))
		s.sendError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	pair, err := s.issue(user)
	if err != nil {
		s.log.Error("failed to issue tokens", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.metrics.logins.WithLabelValues("ok").Inc()
	s.log.Info("user logged in", zap.Int64("user_id", user.ID))

	s.sendJSON(w, http.StatusOK, api.LoginResponse{
		Message: "Login successful",
		Tokens:  pair,
		User:    user,
	})
}

// handleRefresh обрабатывает POST /auth/token/refresh/
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if !s.decode(w, r, &req) {
		return
	}

	userID, err := s.store.LookupRefresh(req.Refresh, s.now())
	if err != nil {
		s.sendDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	user, err := s.store.User(userID)
	if err != nil {
		s.sendDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	access, err := s.tokens.Access(user.ID, user.UserType)
	if err != nil {
		s.log.Error("failed to issue access token", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp := api.RefreshResponse{Access: access}
	if s.opts.RotateRefresh {
		s.store.RevokeRefresh(req.Refresh)
		refresh, expires := s.tokens.Refresh()
		s.store.SaveRefresh(refresh, user.ID, expires)
		resp.Refresh = refresh
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleLogout обрабатывает POST /auth/logout/: refresh token попадает в blacklist
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req api.LogoutRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		s.sendError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	user, _ := userFrom(r.Context())
	owner, err := s.store.LookupRefresh(req.Refresh, s.now())
	if err != nil || owner != user.ID {
		s.sendError(w, http.StatusBadRequest, "Invalid token")
		return
	}
	s.store.RevokeRefresh(req.Refresh)
	s.sendJSON(w, http.StatusOK, api.MessageResponse{Message: "Logout successful"})
}

// handleRegisterStudent обрабатывает POST /auth/student/register/
func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req api.StudentRegisterRequest
	if !s.decode(w, r, &req) {
		return
	}

	user, err := s.store.CreateUser(NewUser{
		Joined:             s.now(),
		Account:            req.User,
		UserType:           api.UserTypeStudent,
		Phone:              validation.NormalizePhone(req.Phone),
		Nationality:        req.Nationality,
		CountryOfResidence: req.CountryOfResidence,
	})
	switch {
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrUsernameTaken):
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("failed to create student", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.log.Info("student registered", zap.Int64("user_id", user.ID))
	s.sendJSON(w, http.StatusCreated, api.RegisterResponse{
		User:    &user,
		Message: "Student registered successfully",
	})
}

// handleProfile обрабатывает GET /auth/profile/
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	s.sendJSON(w, http.StatusOK, user)
}
