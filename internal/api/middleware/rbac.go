package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadflow/role-service/internal/api/metrics"
	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/domain"
)

// DecisionKey is the echo.Context key holding the access.Decision made by
// PageGuard or RequireRole.
const DecisionKey = "access_decision"

type guardResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error"`
	Redirect string `json:"redirect"`
}

// RequireRole lets the request through only when the identity's effective
// role is one of roles. The effective role comes from the same resolver the
// pages use, so claims take precedence and an inactive Profile signs out.
func RequireRole(resolver *access.Resolver, roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r.Canonical()] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := resolver.Guard(c.Request().Context(), ClaimsFrom(c), domain.SurfaceNone)
			if err != nil {
				return guardError(c, err)
			}
			if d.Degraded {
				metrics.DegradedResolutionsTotal.Inc()
			}
			if d.SignOut {
				return c.JSON(http.StatusUnauthorized, guardResponse{Error: "account deactivated", Redirect: string(domain.SurfaceLogin)})
			}
			if _, ok := allowed[d.Role]; !ok {
				return c.JSON(http.StatusForbidden, guardResponse{Error: "forbidden", Redirect: string(d.Redirect)})
			}
			c.Set(DecisionKey, d)
			return next(c)
		}
	}
}

// PageGuard runs the resolver for a role-scoped surface. Identities routed
// elsewhere get 401 when sent to login and 403 otherwise, with the target
// surface in the body.
func PageGuard(resolver *access.Resolver, surface domain.Surface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := resolver.Guard(c.Request().Context(), ClaimsFrom(c), surface)
			if err != nil {
				return guardError(c, err)
			}
			if d.Degraded {
				metrics.DegradedResolutionsTotal.Inc()
			}
			metrics.AccessDecisionsTotal.WithLabelValues(string(surface), string(d.State)).Inc()

			if !d.Authorized() {
				code := http.StatusForbidden
				msg := "forbidden"
				if d.Redirect == domain.SurfaceLogin {
					code = http.StatusUnauthorized
					msg = "account deactivated"
				}
				return c.JSON(code, guardResponse{Error: msg, Redirect: string(d.Redirect)})
			}
			c.Set(DecisionKey, d)
			return next(c)
		}
	}
}

func guardError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) || errors.Is(err, domain.ErrStaleResolution) {
		return c.JSON(http.StatusUnauthorized, guardResponse{Error: "sign in required", Redirect: string(domain.SurfaceLogin)})
	}
	return err
}
