package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/authcore/identity-system/internal/api/metrics"
	"github.com/authcore/identity-system/internal/core/domain"
	"github.com/authcore/identity-system/internal/core/ports"
)

// RoleHandler handles role management and permission resolution.
type RoleHandler struct {
	access ports.AccessService
	users  ports.UserRepository
}

func NewRoleHandler(access ports.AccessService, users ports.UserRepository) *RoleHandler {
	return &RoleHandler{access: access, users: users}
}

// Create handles POST /v1/roles.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRoleRequest  true  "Role details"
// @Success      201   {object}  roleResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	role, err := h.access.CreateRole(c.Request().Context(), req.Name, req.Description, orgID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// Update handles PUT /v1/roles/:id.
//
// @Summary      Rename a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Role ID"
// @Param        body  body      updateRoleRequest  true  "New role details"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/roles/{id} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	role, err := h.access.UpdateRole(c.Request().Context(), c.Param("id"), orgID, req.Name, req.Description)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// SetActive handles PATCH /v1/roles/:id/active.
//
// @Summary      Activate or deactivate a role
// @Tags         roles
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                true  "Role ID"
// @Param        body  body  setRoleActiveRequest  true  "Desired state"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/roles/{id}/active [patch]
func (h *RoleHandler) SetActive(c echo.Context) error {
	var req setRoleActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.access.SetRoleActive(c.Request().Context(), c.Param("id"), orgID, req.Active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPermissions handles PUT /v1/roles/:id/permissions.
//
// @Summary      Replace a role's permission grants
// @Tags         roles
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                     true  "Role ID"
// @Param        body  body  setRolePermissionsRequest  true  "Permission IDs"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/roles/{id}/permissions [put]
func (h *RoleHandler) SetPermissions(c echo.Context) error {
	var req setRolePermissionsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.access.SetRolePermissions(c.Request().Context(), c.Param("id"), orgID, req.PermissionIDs); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Assign handles POST /v1/roles/:id/assignments.
//
// @Summary      Assign a role to a user
// @Tags         roles
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string             true  "Role ID"
// @Param        body  body  assignRoleRequest  true  "User to assign"
// @Success      204
// @Failure      404   {object}  errorResponse
// @Router       /v1/roles/{id}/assignments [post]
func (h *RoleHandler) Assign(c echo.Context) error {
	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.access.AssignRole(c.Request().Context(), req.UserID, c.Param("id"), orgID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResolvePermissions handles GET /v1/users/:id/permissions — the effective
// permission set reachable through the user's active roles.
//
// @Summary      Resolve a user's effective permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  permissionSetResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/permissions [get]
func (h *RoleHandler) ResolvePermissions(c echo.Context) error {
	_, orgID, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.users.FindByID(ctx, c.Param("id"), orgID)
	if err != nil {
		return err
	}

	start := time.Now()
	set, err := h.access.ResolvePermissions(ctx, user)
	if err != nil {
		return err
	}
	metrics.PermissionResolutionDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, permissionSetResponse{
		UserID:      user.ID,
		Permissions: set.Names(),
	})
}

func toRoleResponse(r *domain.Role) roleResponse {
	return roleResponse{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Active:        r.Active,
		PermissionIDs: r.PermissionIDs,
	}
}
