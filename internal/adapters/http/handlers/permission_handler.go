package handlers

import (
	"edvisa-admin/internal/adapters/http/middleware"
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PermissionHandler handles permission catalog and assignment endpoints
type PermissionHandler struct {
	permissionService *services.PermissionService
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permissionService *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// Catalog lists every permission and the role defaults
// @Summary Permission catalog
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /permissions [get]
func (h *PermissionHandler) Catalog(c *fiber.Ctx) error {
	return response.Success(c, "Permission catalog retrieved successfully", h.permissionService.Catalog())
}

// List returns a user's assigned permissions
// @Summary List user permissions
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/permissions [get]
func (h *PermissionHandler) List(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	perms, err := h.permissionService.List(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to list permissions")
	}

	return response.Success(c, "Permissions retrieved successfully", fiber.Map{"permissions": perms})
}

// Grant assigns a permission to a user
// @Summary Grant permission
// @Description Takes effect on the user's next login or refresh. Admin sets cannot be edited.
// @Tags Permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body services.GrantInput true "Permission"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/{id}/permissions [post]
func (h *PermissionHandler) Grant(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req services.GrantInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	actor, _ := middleware.PrincipalFrom(c)
	if err := h.permissionService.Grant(c.UserContext(), actor.SubjectID, id, req.Permission); err != nil {
		return writeError(c, err, "Failed to grant permission")
	}

	return response.Success(c, "Permission granted successfully", nil)
}

// Revoke removes a permission from a user
// @Summary Revoke permission
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param permission path string true "Permission name"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/{id}/permissions/{permission} [delete]
func (h *PermissionHandler) Revoke(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	actor, _ := middleware.PrincipalFrom(c)
	if err := h.permissionService.Revoke(c.UserContext(), actor.SubjectID, id, c.Params("permission")); err != nil {
		return writeError(c, err, "Failed to revoke permission")
	}

	return response.Success(c, "Permission revoked successfully", nil)
}
