package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/leadflow/role-service/internal/api/middleware"
	"github.com/leadflow/role-service/internal/core/domain"
)

// ctxClaims extracts the claims injected by the Auth middleware. Absence
// means the route was registered without it; treat as unauthenticated.
func ctxClaims(c echo.Context) (*domain.TokenClaims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
