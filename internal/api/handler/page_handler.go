package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadflow/role-service/internal/api/middleware"
	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/domain"
)

// PageHandler answers role-scoped page loads once PageGuard has authorized
// them, and reports the current session's resolution.
type PageHandler struct {
	resolver *access.Resolver
}

func NewPageHandler(resolver *access.Resolver) *PageHandler {
	return &PageHandler{resolver: resolver}
}

// Page returns the handler for one surface.
//
// @Summary      Load a role-scoped page
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Param        surface  path      string  true  "dashboard, teamadmin or tasks"
// @Success      200      {object}  pageResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /v1/pages/{surface} [get]
func (h *PageHandler) Page(surface domain.Surface) echo.HandlerFunc {
	return func(c echo.Context) error {
		d, _ := c.Get(middleware.DecisionKey).(access.Decision)
		return c.JSON(http.StatusOK, pageResponse{
			Success:  true,
			Surface:  string(surface),
			Role:     d.Role,
			Degraded: d.Degraded,
		})
	}
}

// Session handles GET /v1/session.
//
// @Summary      Resolve the current session
// @Description  Returns the effective role and the surface the client should navigate to.
// @Tags         pages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/session [get]
func (h *PageHandler) Session(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	d, err := h.resolver.Guard(c.Request().Context(), claims, domain.SurfaceNone)
	if err != nil {
		return err
	}
	if d.SignOut {
		return domain.ErrAccountDeactivated
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Success:   true,
		UID:       claims.UID,
		Role:      d.Role,
		Redirect:  string(d.Redirect),
		ExpiresAt: claims.ExpiresAt,
	})
}
