package domain

import "strings"

// Role is one of the fixed permission roles a Profile or token claim can carry.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleTeamAdmin Role = "TeamAdmin"
	RoleMaster    Role = "Master"
	RoleExecutive Role = "Executive"
)

// AllowedRoles is the closed enumeration accepted by role assignment and registration.
var AllowedRoles = []Role{RoleAdmin, RoleTeamAdmin, RoleMaster, RoleExecutive}

// ClaimRole is the custom claim key that carries a Role inside an identity token.
const ClaimRole = "role"

// IsAllowed reports whether r is exactly one of AllowedRoles.
func (r Role) IsAllowed() bool {
	for _, a := range AllowedRoles {
		if r == a {
			return true
		}
	}
	return false
}

// Canonical returns the lowercase form used for access comparisons.
func (r Role) Canonical() string {
	return strings.ToLower(string(r))
}

// ParseRole maps any casing of a known role ("admin", "ADMIN", "Admin") onto
// its canonical Role. Profiles written by older clients store lowercase values.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, a := range AllowedRoles {
		if strings.EqualFold(s, string(a)) {
			return a, true
		}
	}
	return "", false
}

// IsAdminRole is true for any casing of "Admin".
func IsAdminRole(s string) bool {
	r, ok := ParseRole(s)
	return ok && r == RoleAdmin
}

// AllowedRolesList renders AllowedRoles for error messages.
func AllowedRolesList() string {
	names := make([]string, 0, len(AllowedRoles))
	for _, r := range AllowedRoles {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}
