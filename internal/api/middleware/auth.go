package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// ClaimsKey is the echo.Context key holding the verified *domain.TokenClaims.
const ClaimsKey = "claims"

// Auth validates the bearer token, rejects revoked tokens and injects the
// claims into context. A revocation store error is treated as revoked.
func Auth(verifier ports.TokenVerifier, revocations ports.RevocationStore, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. Expected Authorization: Bearer <ID_TOKEN> header.")
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Info().Err(err).Str("path", c.Path()).Msg("token verification failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			if revocations != nil && claims.ID != "" {
				revoked, err := revocations.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					log.Error().Err(err).Str("uid", claims.UID).Msg("revocation check failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
				}
				if revoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
				}
			}

			c.Set(ClaimsKey, claims)
			c.Set("uid", claims.UID)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims injected by Auth, or nil.
func ClaimsFrom(c echo.Context) *domain.TokenClaims {
	claims, _ := c.Get(ClaimsKey).(*domain.TokenClaims)
	return claims
}
