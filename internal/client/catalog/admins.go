package catalog

import (
	"slices"
	"strings"

	"github.com/iudanet/scholardesk/pkg/api"
)

// AdminRole is the directory role of an admin user
type AdminRole string

const (
	RoleAll   AdminRole = "all"
	RoleSuper AdminRole = "super"
	RoleStaff AdminRole = "staff"
)

// AdminSort is the directory sort key
type AdminSort string

const (
	SortByName  AdminSort = "name"
	SortByEmail AdminSort = "email"
	SortByRole  AdminSort = "role"
)

// Admin is a directory entry with derived fields
type Admin struct {
	FullName string
	Role     AdminRole
	api.AdminUser
}

// NormalizeAdmins derives full name and role for every admin
func NormalizeAdmins(users []api.AdminUser) []Admin {
	out := make([]Admin, 0, len(users))
	for _, u := range users {
		role := RoleStaff
		if u.IsSuper() {
			role = RoleSuper
		}
		out = append(out, Admin{
			AdminUser: u,
			FullName:  strings.TrimSpace(u.FirstName + " " + u.LastName),
			Role:      role,
		})
	}
	return out
}

// AdminFilter: Role "" or RoleAll matches every role
type AdminFilter struct {
	Role  AdminRole
	Query string
}

// FilterAdmins matches the query against full name, email and username
func FilterAdmins(admins []Admin, f AdminFilter) []Admin {
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Admin, 0, len(admins))
	for _, a := range admins {
		if f.Role != "" && f.Role != RoleAll && a.Role != f.Role {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(a.FullName), q) &&
			!strings.Contains(strings.ToLower(a.Email), q) &&
			!strings.Contains(strings.ToLower(a.Username), q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// SortAdmins returns a sorted copy; unknown keys sort by name
func SortAdmins(admins []Admin, by AdminSort) []Admin {
	out := slices.Clone(admins)
	slices.SortStableFunc(out, func(x, y Admin) int {
		switch by {
		case SortByEmail:
			return compareText(x.Email, y.Email)
		case SortByRole:
			return compareText(string(x.Role), string(y.Role))
		}
		return compareText(x.FullName, y.FullName)
	})
	return out
}

// AdminCounts summarises the directory
type AdminCounts struct {
	Total int
	Super int
	Staff int
}

// CountAdmins counts super admins and plain staff. Users that are neither
// staff nor super only add to Total
func CountAdmins(users []api.AdminUser) AdminCounts {
	c := AdminCounts{Total: len(users)}
	for _, u := range users {
		switch {
		case u.IsSuper():
			c.Super++
		case u.IsStaff:
			c.Staff++
		}
	}
	return c
}
