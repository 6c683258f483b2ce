package domain

import "time"

// Profile is the durable per-identity record in the primary data store.
// It is the source of truth for a user's role and active state.
type Profile struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified,omitempty"`
}

// Account is the auth subsystem's view of an identity: credentials, the
// enable/disable switch and the custom claims embedded in issued tokens.
type Account struct {
	UID          string
	Email        string
	PasswordHash string
	Disabled     bool
	CustomClaims map[string]any
	CreatedAt    time.Time
}

// TokenClaims is the verified content of an identity token.
type TokenClaims struct {
	ID        string
	UID       string
	Email     string
	Role      string
	Custom    map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// MergeClaims overlays updates onto a copy of existing. Keys absent from
// updates are preserved.
func MergeClaims(existing, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+len(updates))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}
