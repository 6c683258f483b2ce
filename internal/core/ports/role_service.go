package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// AssignRoleInput carries a role-change request. Requester always comes from
// a verified token, never from the request body.
type AssignRoleInput struct {
	Requester *domain.TokenClaims
	TargetUID any
	Role      any
}

// AssignRoleResult echoes the applied role.
type AssignRoleResult struct {
	TargetUID string
	Role      domain.Role
}

type RoleService interface {
	AssignRole(ctx context.Context, in AssignRoleInput) (*AssignRoleResult, error)
}
