package auth

import "github.com/Togather-Foundation/eventdesk/internal/domain/users"

// HasRole reports whether role is one of allowed. Unknown roles never match.
func HasRole(role users.Role, allowed ...users.Role) bool {
	current, ok := users.ParseRole(string(role))
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role users.Role) bool {
	return HasRole(role, users.RoleAdmin)
}
