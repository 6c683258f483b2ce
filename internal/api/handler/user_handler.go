package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadflow/role-service/internal/core/ports"
)

// UserHandler serves the Admin user directory.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// List handles GET /v1/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	profiles, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]profileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, toProfileResponse(p))
	}
	return c.JSON(http.StatusOK, userListResponse{Success: true, Users: out})
}

// SetActive handles PATCH /v1/users/:uid/active.
//
// @Summary      Activate or deactivate a user
// @Description  Deactivated users are signed out on their next page load.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uid   path      string            true  "User id"
// @Param        body  body      setActiveRequest  true  "New active state"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{uid}/active [patch]
func (h *UserHandler) SetActive(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	profile, err := h.service.SetActive(c.Request().Context(), claims, c.Param("uid"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: toProfileResponse(profile)})
}
