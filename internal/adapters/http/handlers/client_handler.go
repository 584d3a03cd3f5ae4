package handlers

import (
	"edvisa-admin/internal/core/services"
	"edvisa-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClientHandler serves student or immigration client endpoints. The route
// has already evaluated the caller's permissions; the service completes
// the ownership check.
type ClientHandler struct {
	clientService *services.ClientService
	label         string
}

// NewClientHandler creates a new client handler. label names the client
// kind in response messages.
func NewClientHandler(clientService *services.ClientService, label string) *ClientHandler {
	return &ClientHandler{clientService: clientService, label: label}
}

// Get returns one client
// @Summary Get client
// @Description Broad read permission, or the scoped permission plus assignment or self
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /students/{id} [get]
// @Router /immigration-clients/{id} [get]
func (h *ClientHandler) Get(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid "+h.label+" ID")
	}

	client, err := h.clientService.Get(c.UserContext(), accessFrom(c), id)
	if err != nil {
		return writeError(c, err, "Failed to get "+h.label)
	}

	return response.Success(c, h.label+" retrieved successfully", client)
}

// Update edits one client
// @Summary Update client
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body services.UpdateClientInput true "Fields to change"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /students/{id} [put]
// @Router /immigration-clients/{id} [put]
func (h *ClientHandler) Update(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid "+h.label+" ID")
	}

	var req services.UpdateClientInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	client, err := h.clientService.Update(c.UserContext(), accessFrom(c), id, &req)
	if err != nil {
		return writeError(c, err, "Failed to update "+h.label)
	}

	return response.Success(c, h.label+" updated successfully", client)
}

// Assign sets the client's staff assignments
// @Summary Assign staff
// @Description Sets admission associate, counselor and SOP writer. Each must be an Employee; an empty string clears a slot.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body services.AssignStaffInput true "Assignments"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /students/{id}/assignments [put]
// @Router /immigration-clients/{id}/assignments [put]
func (h *ClientHandler) Assign(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid "+h.label+" ID")
	}

	var req services.AssignStaffInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	client, err := h.clientService.Assign(c.UserContext(), accessFrom(c), id, &req)
	if err != nil {
		return writeError(c, err, "Failed to assign staff")
	}

	return response.Success(c, "Staff assigned successfully", client)
}

// ListDocuments lists a client's documents
// @Summary List client documents
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /students/{id}/documents [get]
// @Router /immigration-clients/{id}/documents [get]
func (h *ClientHandler) ListDocuments(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid "+h.label+" ID")
	}

	docs, err := h.clientService.ListDocuments(c.UserContext(), accessFrom(c), id)
	if err != nil {
		return writeError(c, err, "Failed to list documents")
	}

	return response.Success(c, "Documents retrieved successfully", docs)
}

// CreateDocument records document metadata for a client
// @Summary Add client document
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param body body services.CreateDocumentInput true "Document metadata"
// @Success 201 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /students/{id}/documents [post]
// @Router /immigration-clients/{id}/documents [post]
func (h *ClientHandler) CreateDocument(c *fiber.Ctx) error {
	id, ok := idParam(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid "+h.label+" ID")
	}

	var req services.CreateDocumentInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	doc, err := h.clientService.CreateDocument(c.UserContext(), accessFrom(c), id, &req)
	if err != nil {
		return writeError(c, err, "Failed to create document")
	}

	return response.Created(c, "Document created successfully", doc)
}
