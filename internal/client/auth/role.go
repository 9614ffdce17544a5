package auth

import (
	"context"
	"fmt"

	"github.com/iudanet/scholardesk/pkg/api"
)

// Role is an access level a command may require
type Role string

const (
	RoleAny     Role = ""
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleSuper   Role = "super"
)

// RequireRole checks the stored session against role.
// Admins pass student checks, super admins pass admin checks
func (s *Store) RequireRole(ctx context.Context, role Role) (*api.User, error) {
	if !s.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}
	if role == RoleAny {
		user, err := s.CurrentUser(ctx)
		if err != nil {
			// Токен есть, профиля нет: доступ без роли все равно разрешен
			return nil, nil
		}
		return user, nil
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	if !HasRole(*user, role) {
		return nil, fmt.Errorf("%w: %s role required", ErrAccessDenied, role)
	}
	return user, nil
}

// HasRole reports whether user satisfies role
func HasRole(user api.User, role Role) bool {
	switch role {
	case RoleAny:
		return true
	case RoleStudent:
		return user.IsStudent() || user.IsAdmin()
	case RoleAdmin:
		return user.IsAdmin()
	case RoleSuper:
		return user.IsAdmin() && user.IsSuper()
	}
	return false
}
