package handlers

import (
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// SetActiveRequest toggles a user's active flag
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// CreateUser handles user creation
// @Summary Create user
// @Description Create a user of any role; the role's default permissions are assigned
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req services.CreateUserInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userService.Create(c.UserContext(), &req)
	if err != nil {
		return writeError(c, err, "Failed to create user")
	}

	return response.Created(c, "User created successfully", user)
}

// GetUser handles getting a user by ID
// @Summary Get user by ID
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user)
}

// VerifyEmail marks a user's email as verified
// @Summary Verify email
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/verify-email [put]
func (h *UserHandler) VerifyEmail(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.VerifyEmail(c.UserContext(), id); err != nil {
		return writeError(c, err, "Failed to verify email")
	}

	return response.Success(c, "Email verified successfully", nil)
}

// SetActive activates or deactivates a user
// @Summary Set user active flag
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body SetActiveRequest true "Active flag"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id}/active [put]
func (h *UserHandler) SetActive(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var req SetActiveRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	if err := h.userService.SetActive(c.UserContext(), id, *req.IsActive); err != nil {
		return writeError(c, err, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", nil)
}

// DeleteUser soft deletes a user
// @Summary Delete user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err, "Failed to delete user")
	}

	return response.Success(c, "User deleted successfully", nil)
}
