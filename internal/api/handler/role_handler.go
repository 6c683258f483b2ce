package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadflow/role-service/internal/api/metrics"
	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
)

// RoleHandler handles role assignment requests.
type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// Assign handles POST /v1/roles/assign.
//
// @Summary      Assign a role to a user
// @Description  Admin only. Updates the target's Profile and token claims. The target must refresh their token to see the new claim.
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignRoleRequest  true  "Target uid and role"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      405   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/roles/assign [post]
func (h *RoleHandler) Assign(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		metrics.AssignmentsTotal.WithLabelValues(assignOutcome(err)).Inc()
		return err
	}

	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		metrics.AssignmentsTotal.WithLabelValues("validation").Inc()
		return domain.NewValidationError("Missing parameters. Expected { uid, role }")
	}

	res, err := h.service.AssignRole(c.Request().Context(), ports.AssignRoleInput{
		Requester: claims,
		TargetUID: req.UID,
		Role:      req.Role,
	})
	metrics.AssignmentsTotal.WithLabelValues(assignOutcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{
		Success: true,
		Message: "Role updated to " + string(res.Role),
	})
}

func assignOutcome(err error) string {
	switch {
	case err == nil:
		return "assigned"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrTargetNotFound):
		return "target_not_found"
	case errors.Is(err, domain.ErrTargetDisabled):
		return "target_disabled"
	default:
		return "error"
	}
}
