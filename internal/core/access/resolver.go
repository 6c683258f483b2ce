package access

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// State is a step of one page-load resolution.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateTokenVerifying  State = "token_verifying"
	StateProfileFetching State = "profile_fetching"
	StateRoleResolved    State = "role_resolved"
	StateAuthorized      State = "authorized"
	StateRedirected      State = "redirected"
)

// Resolution is the reconciled view of an identity before any page decision.
type Resolution struct {
	Identity    *domain.TokenClaims
	ClaimsRole  string
	ProfileRole string
	Role        string
	Active      bool
	// Degraded is set when the Profile could not be read and only the token
	// claims were used.
	Degraded bool
	Trace    []State
}

// Decision is the terminal outcome for a page load.
type Decision struct {
	State    State
	Role     string
	Redirect domain.Surface
	SignOut  bool
	Degraded bool
	Trace    []State
}

func (d Decision) Authorized() bool { return d.State == StateAuthorized }

// Resolver reconciles token claims with the stored Profile on every
// protected request.
type Resolver struct {
	profiles    ports.ProfileRepository
	revocations ports.RevocationStore
	log         zerolog.Logger
	now         func() time.Time
}

func NewResolver(profiles ports.ProfileRepository, revocations ports.RevocationStore, log zerolog.Logger) *Resolver {
	return &Resolver{
		profiles:    profiles,
		revocations: revocations,
		log:         log,
		now:         time.Now,
	}
}

// Resolve reads the identity's Profile and computes the effective role.
// It returns domain.ErrStaleResolution when the request ended or the token
// was signed out while the Profile was being fetched; the caller must
// discard the attempt.
func (r *Resolver) Resolve(ctx context.Context, identity *domain.TokenClaims) (*Resolution, error) {
	res := &Resolution{Trace: []State{StateUnauthenticated}}
	if identity == nil || identity.UID == "" {
		return res, domain.ErrUnauthenticated
	}
	res.Identity = identity
	res.ClaimsRole = identity.Role
	res.Trace = append(res.Trace, StateTokenVerifying, StateProfileFetching)

	log := r.log.With().Str("uid", identity.UID).Logger()

	res.Active = true
	profile, err := r.profiles.FindByUID(ctx, identity.UID)
	switch {
	case err == nil:
		res.ProfileRole = profile.Role
		res.Active = profile.IsActive
	case errors.Is(err, domain.ErrProfileNotFound):
		res.Degraded = true
		log.Warn().Msg("profile missing, resolving role from token claims only")
	default:
		res.Degraded = true
		log.Warn().Err(err).Msg("profile fetch failed, resolving role from token claims only")
	}

	if err := r.checkStale(ctx, identity); err != nil {
		return res, err
	}

	res.Role = ResolveEffectiveRole(res.ClaimsRole, res.ProfileRole)
	res.Trace = append(res.Trace, StateRoleResolved)

	log.Debug().
		Str("claims_role", res.ClaimsRole).
		Str("profile_role", res.ProfileRole).
		Str("effective_role", res.Role).
		Bool("active", res.Active).
		Msg("effective role resolved")
	return res, nil
}

// Decide turns a Resolution into a page decision. An inactive Profile always
// signs out, whatever the role. surface may be SurfaceNone for the login flow,
// which redirects to the role's own surface.
func (r *Resolver) Decide(res *Resolution, surface domain.Surface) Decision {
	d := Decision{Role: res.Role, Degraded: res.Degraded, Trace: append([]State(nil), res.Trace...)}

	if !res.Active {
		d.State = StateRedirected
		d.SignOut = true
		d.Redirect = domain.SurfaceLogin
		d.Trace = append(d.Trace, StateRedirected)
		return d
	}

	target := RouteFor(res.Role)
	if surface != domain.SurfaceNone && target == surface {
		d.State = StateAuthorized
		d.Trace = append(d.Trace, StateAuthorized)
		return d
	}

	d.State = StateRedirected
	d.Redirect = target
	d.Trace = append(d.Trace, StateRedirected)
	return d
}

// Guard resolves and decides in one step and performs the forced sign-out
// when the decision requires it.
func (r *Resolver) Guard(ctx context.Context, identity *domain.TokenClaims, surface domain.Surface) (Decision, error) {
	res, err := r.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrStaleResolution) {
			return Decision{
				State:    StateRedirected,
				Redirect: domain.SurfaceLogin,
				Trace:    append(res.Trace, StateRedirected),
			}, err
		}
		return Decision{}, err
	}

	d := r.Decide(res, surface)
	if d.SignOut {
		if err := r.signOut(ctx, identity); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (r *Resolver) checkStale(ctx context.Context, identity *domain.TokenClaims) error {
	if ctx.Err() != nil {
		return domain.ErrStaleResolution
	}
	if identity.ID == "" || r.revocations == nil {
		return nil
	}
	revoked, err := r.revocations.IsRevoked(ctx, identity.ID)
	if err != nil {
		// Cannot tell whether the session is still alive: discard.
		r.log.Warn().Err(err).Str("uid", identity.UID).Msg("revocation check failed during role resolution")
		return domain.ErrStaleResolution
	}
	if revoked {
		return domain.ErrStaleResolution
	}
	return nil
}

func (r *Resolver) signOut(ctx context.Context, identity *domain.TokenClaims) error {
	r.log.Info().Str("uid", identity.UID).Msg("inactive profile, forcing sign-out")
	if identity.ID == "" || r.revocations == nil {
		return nil
	}
	ttl := identity.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.revocations.Revoke(ctx, identity.ID, ttl)
}
