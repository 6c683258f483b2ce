package domain

import "time"

// RoleChangeEvent records an applied role assignment. PreviousRole is the
// claim value before the change and may be empty.
type RoleChangeEvent struct {
	TargetUID    string
	RequesterUID string
	PreviousRole string
	NewRole      Role
	ClaimsSynced bool
	At           time.Time
}
