package service

import (
	"context"
	"time"

	"github.com/leadflow/role-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	byUID     map[string]*domain.Profile
	findErr   error
	mergeErr  error
	merges    int
	activeSet int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byUID: make(map[string]*domain.Profile)}
}

func cloneProfile(p *domain.Profile) *domain.Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	if _, ok := r.byUID[p.UID]; ok {
		return domain.ErrUserExists
	}
	r.byUID[p.UID] = cloneProfile(p)
	return nil
}

func (r *stubProfileRepo) FindByUID(_ context.Context, uid string) (*domain.Profile, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.byUID[uid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return cloneProfile(p), nil
}

func (r *stubProfileRepo) List(_ context.Context) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(r.byUID))
	for _, p := range r.byUID {
		out = append(out, cloneProfile(p))
	}
	return out, nil
}

func (r *stubProfileRepo) MergeRole(_ context.Context, uid string, role domain.Role, at time.Time) error {
	if r.mergeErr != nil {
		return r.mergeErr
	}
	r.merges++
	p, ok := r.byUID[uid]
	if !ok {
		p = &domain.Profile{UID: uid}
		r.byUID[uid] = p
	}
	p.Role = string(role)
	p.LastModified = at
	return nil
}

func (r *stubProfileRepo) SetActive(_ context.Context, uid string, active bool, at time.Time) error {
	p, ok := r.byUID[uid]
	if !ok {
		return domain.ErrProfileNotFound
	}
	r.activeSet++
	p.IsActive = active
	p.LastModified = at
	return nil
}

type stubAccountRepo struct {
	byUID          map[string]*domain.Account
	claimsReadErr  error
	claimsWriteErr error
	claimWrites    int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byUID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	c := *a
	c.CustomClaims = domain.MergeClaims(a.CustomClaims, nil)
	return &c
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) error {
	for _, existing := range r.byUID {
		if existing.Email == a.Email {
			return domain.ErrUserExists
		}
	}
	r.byUID[a.UID] = cloneAccount(a)
	return nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, a := range r.byUID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubAccountRepo) FindByUID(_ context.Context, uid string) (*domain.Account, error) {
	a, ok := r.byUID[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) CustomClaims(_ context.Context, uid string) (map[string]any, error) {
	if r.claimsReadErr != nil {
		return nil, r.claimsReadErr
	}
	a, ok := r.byUID[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return domain.MergeClaims(a.CustomClaims, nil), nil
}

func (r *stubAccountRepo) SetCustomClaims(_ context.Context, uid string, claims map[string]any) error {
	if r.claimsWriteErr != nil {
		return r.claimsWriteErr
	}
	a, ok := r.byUID[uid]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.claimWrites++
	a.CustomClaims = domain.MergeClaims(claims, nil)
	return nil
}

func (r *stubAccountRepo) SetDisabled(_ context.Context, uid string, disabled bool) error {
	a, ok := r.byUID[uid]
	if !ok {
		return domain.ErrUserNotFound
	}
	a.Disabled = disabled
	return nil
}

// stubLimiter mimics the rolling window in memory.
type stubLimiter struct {
	limit  int
	counts map[string]int
	forced *domain.RateDecision
	calls  int
}

func newStubLimiter(limit int) *stubLimiter {
	return &stubLimiter{limit: limit, counts: make(map[string]int)}
}

func (l *stubLimiter) Allow(_ context.Context, requester string) domain.RateDecision {
	l.calls++
	if l.forced != nil {
		return *l.forced
	}
	if l.counts[requester] >= l.limit {
		return domain.RateDecision{Verdict: domain.RateDeniedQuota, Count: l.counts[requester]}
	}
	l.counts[requester]++
	return domain.RateDecision{Verdict: domain.RateAllowed, Count: l.counts[requester]}
}

type stubPublisher struct {
	events []domain.RoleChangeEvent
}

func (p *stubPublisher) Publish(e domain.RoleChangeEvent) {
	p.events = append(p.events, e)
}

type stubRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Duration)}
}

func (r *stubRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}
