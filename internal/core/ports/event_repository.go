package ports

import (
	"context"

	"github.com/leadflow/role-service/internal/core/domain"
)

// RoleEventRepository persists applied role changes.
type RoleEventRepository interface {
	InsertRoleChange(ctx context.Context, event *domain.RoleChangeEvent) error
}

// RoleEventPublisher hands a role change to asynchronous downstream processing.
type RoleEventPublisher interface {
	Publish(event domain.RoleChangeEvent)
}

// RoleEventProcessor consumes one role change from the dispatcher.
type RoleEventProcessor interface {
	Process(ctx context.Context, event domain.RoleChangeEvent) error
}
