// Package access decides which dashboard surface an identity may see.
//
// Two sources describe a user's role: the claim inside their identity token
// and the role stored on their Profile. They can disagree until the token is
// refreshed. The claim wins when present.
package access

import (
	"strings"

	"github.com/leadflow/role-service/internal/core/domain"
)

// ResolveEffectiveRole picks claimsRole when non-empty, otherwise
// profileRole, and returns it lowercased. Both empty yields "".
func ResolveEffectiveRole(claimsRole, profileRole string) string {
	raw := strings.TrimSpace(claimsRole)
	if raw == "" {
		raw = strings.TrimSpace(profileRole)
	}
	return strings.ToLower(raw)
}

// RouteFor maps an effective role onto the surface it is scoped to.
func RouteFor(effectiveRole string) domain.Surface {
	switch effectiveRole {
	case domain.RoleAdmin.Canonical():
		return domain.SurfaceDashboard
	case domain.RoleTeamAdmin.Canonical():
		return domain.SurfaceTeamAdmin
	case domain.RoleExecutive.Canonical(), domain.RoleMaster.Canonical():
		return domain.SurfaceTasks
	default:
		return domain.SurfaceUnauthorized
	}
}
