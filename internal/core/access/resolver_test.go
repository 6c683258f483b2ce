package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
)

type stubProfiles struct {
	byUID map[string]*domain.Profile
	err   error
	// onFind runs during the fetch, before the result is returned.
	onFind func()
}

func (s *stubProfiles) Create(context.Context, *domain.Profile) error { return nil }

func (s *stubProfiles) FindByUID(_ context.Context, uid string) (*domain.Profile, error) {
	if s.onFind != nil {
		s.onFind()
	}
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.byUID[uid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (s *stubProfiles) List(context.Context) ([]*domain.Profile, error) { return nil, nil }

func (s *stubProfiles) MergeRole(context.Context, string, domain.Role, time.Time) error { return nil }

func (s *stubProfiles) SetActive(context.Context, string, bool, time.Time) error { return nil }

type stubRevocations struct {
	revoked map[string]time.Duration
	err     error
}

func (s *stubRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.revoked[id] = ttl
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[id]
	return ok, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestResolver(profiles ...*domain.Profile) (*Resolver, *stubProfiles, *stubRevocations) {
	sp := &stubProfiles{byUID: make(map[string]*domain.Profile)}
	for _, p := range profiles {
		sp.byUID[p.UID] = p
	}
	sr := &stubRevocations{revoked: make(map[string]time.Duration)}
	r := NewResolver(sp, sr, zerolog.Nop())
	r.now = func() time.Time { return fixedNow }
	return r, sp, sr
}

func identity(uid, role string) *domain.TokenClaims {
	return &domain.TokenClaims{
		ID:        "jti-" + uid,
		UID:       uid,
		Role:      role,
		IssuedAt:  fixedNow.Add(-10 * time.Minute),
		ExpiresAt: fixedNow.Add(50 * time.Minute),
	}
}

func TestGuard_ClaimsOverrideProfile(t *testing.T) {
	r, _, _ := newTestResolver(&domain.Profile{UID: "u1", Role: "Executive", IsActive: true})

	d, err := r.Guard(context.Background(), identity("u1", "TeamAdmin"), domain.SurfaceTeamAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() {
		t.Fatalf("expected authorized, got %+v", d)
	}
	if d.Role != "teamadmin" {
		t.Fatalf("expected teamadmin, got %q", d.Role)
	}

	// Same identity on the tasks surface is bounced to its own surface.
	d, err = r.Guard(context.Background(), identity("u1", "TeamAdmin"), domain.SurfaceTasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.State != StateRedirected || d.Redirect != domain.SurfaceTeamAdmin {
		t.Fatalf("expected redirect to /teamadmin, got %+v", d)
	}
}

func TestGuard_ProfileRoleWhenClaimMissing(t *testing.T) {
	r, _, _ := newTestResolver(&domain.Profile{UID: "u2", Role: "Master", IsActive: true})

	d, err := r.Guard(context.Background(), identity("u2", ""), domain.SurfaceTasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || d.Role != "master" {
		t.Fatalf("expected master authorized on /tasks, got %+v", d)
	}
}

func TestGuard_InactiveSignsOut(t *testing.T) {
	r, _, revs := newTestResolver(&domain.Profile{UID: "u3", Role: "Admin", IsActive: false})

	d, err := r.Guard(context.Background(), identity("u3", "Admin"), domain.SurfaceDashboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.SignOut || d.Redirect != domain.SurfaceLogin || d.Authorized() {
		t.Fatalf("expected sign-out to /login, got %+v", d)
	}
	ttl, ok := revs.revoked["jti-u3"]
	if !ok {
		t.Fatal("expected token to be revoked")
	}
	if ttl != 50*time.Minute {
		t.Fatalf("expected revocation ttl of remaining lifetime, got %s", ttl)
	}
}

func TestGuard_NoRoleIsUnauthorized(t *testing.T) {
	r, _, _ := newTestResolver(&domain.Profile{UID: "u4", IsActive: true})

	d, err := r.Guard(context.Background(), identity("u4", ""), domain.SurfaceDashboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Redirect != domain.SurfaceUnauthorized {
		t.Fatalf("expected /unauthorized, got %+v", d)
	}
}

func TestGuard_ProfileFetchFailureDegrades(t *testing.T) {
	r, profiles, _ := newTestResolver()
	profiles.err = errors.New("mongo down")

	d, err := r.Guard(context.Background(), identity("u5", "Admin"), domain.SurfaceDashboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || !d.Degraded {
		t.Fatalf("expected degraded authorization, got %+v", d)
	}
}

func TestGuard_MissingProfileDegrades(t *testing.T) {
	r, _, _ := newTestResolver()

	d, err := r.Guard(context.Background(), identity("ghost", "Executive"), domain.SurfaceTasks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Authorized() || !d.Degraded {
		t.Fatalf("expected degraded authorization, got %+v", d)
	}
}

func TestGuard_Unauthenticated(t *testing.T) {
	r, _, _ := newTestResolver()

	d, err := r.Guard(context.Background(), nil, domain.SurfaceDashboard)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if d.Redirect != domain.SurfaceLogin {
		t.Fatalf("expected redirect to /login, got %+v", d)
	}
}

func TestResolve_StaleAfterSignOut(t *testing.T) {
	r, profiles, revs := newTestResolver(&domain.Profile{UID: "u6", Role: "Admin", IsActive: true})
	profiles.onFind = func() { revs.revoked["jti-u6"] = time.Minute }

	_, err := r.Resolve(context.Background(), identity("u6", "Admin"))
	if !errors.Is(err, domain.ErrStaleResolution) {
		t.Fatalf("expected ErrStaleResolution, got %v", err)
	}
}

func TestResolve_StaleAfterCancel(t *testing.T) {
	r, profiles, _ := newTestResolver(&domain.Profile{UID: "u7", Role: "Admin", IsActive: true})
	ctx, cancel := context.WithCancel(context.Background())
	profiles.onFind = cancel

	_, err := r.Resolve(ctx, identity("u7", "Admin"))
	if !errors.Is(err, domain.ErrStaleResolution) {
		t.Fatalf("expected ErrStaleResolution, got %v", err)
	}
}

func TestResolve_Trace(t *testing.T) {
	r, _, _ := newTestResolver(&domain.Profile{UID: "u8", Role: "Admin", IsActive: true})

	res, err := r.Resolve(context.Background(), identity("u8", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := r.Decide(res, domain.SurfaceDashboard)

	want := []State{StateUnauthenticated, StateTokenVerifying, StateProfileFetching, StateRoleResolved, StateAuthorized}
	if len(d.Trace) != len(want) {
		t.Fatalf("trace = %v, want %v", d.Trace, want)
	}
	for i := range want {
		if d.Trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", d.Trace, want)
		}
	}
}

func TestDecide_LoginFlowRedirectsToRoleSurface(t *testing.T) {
	r, _, _ := newTestResolver()

	d := r.Decide(&Resolution{Role: "executive", Active: true}, domain.SurfaceNone)
	if d.State != StateRedirected || d.Redirect != domain.SurfaceTasks {
		t.Fatalf("expected redirect to /tasks, got %+v", d)
	}
}
