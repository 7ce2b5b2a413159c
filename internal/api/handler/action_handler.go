package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// ActionHandler handles HTTP requests for a project's action catalog.
type ActionHandler struct {
	catalog ports.ActionCatalogService
}

func NewActionHandler(catalog ports.ActionCatalogService) *ActionHandler {
	return &ActionHandler{catalog: catalog}
}

// Create handles POST /v1/projects/:projectId/actions.
//
// @Summary      Add an action to the catalog
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        projectId  path      string               true  "Project ID"
// @Param        body       body      createActionRequest  true  "Action"
// @Success      201        {object}  envelope{data=domain.ActionItem}
// @Failure      409        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/actions [post]
func (h *ActionHandler) Create(c echo.Context) error {
	var req createActionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	action, err := h.catalog.Create(c.Request().Context(), ports.CreateActionInput{
		ProjectID:   c.Param("projectId"),
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("action").Inc()
	return respond(c, http.StatusCreated, action)
}

// List handles GET /v1/projects/:projectId/actions.
//
// @Summary      List the action catalog
// @Tags         actions
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=[]domain.ActionItem}
// @Router       /v1/projects/{projectId}/actions [get]
func (h *ActionHandler) List(c echo.Context) error {
	actions, err := h.catalog.List(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, actions)
}

// Get handles GET /v1/projects/:projectId/actions/:actionKey.
//
// @Summary      Get a catalog action
// @Tags         actions
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        actionKey  path      string  true  "Action key"
// @Success      200        {object}  envelope{data=domain.ActionItem}
// @Router       /v1/projects/{projectId}/actions/{actionKey} [get]
func (h *ActionHandler) Get(c echo.Context) error {
	action, err := h.catalog.Get(c.Request().Context(), c.Param("projectId"), c.Param("actionKey"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, action)
}

// Update handles PATCH /v1/projects/:projectId/actions/:actionKey. The key
// itself is immutable.
//
// @Summary      Update a catalog action
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        projectId  path      string               true   "Project ID"
// @Param        actionKey  path      string               true   "Action key"
// @Param        If-Match   header    string               false  "Expected version"
// @Param        body       body      updateActionRequest  true   "Fields to change"
// @Success      200        {object}  envelope{data=domain.ActionItem}
// @Router       /v1/projects/{projectId}/actions/{actionKey} [patch]
func (h *ActionHandler) Update(c echo.Context) error {
	var req updateActionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}
	action, err := h.catalog.Update(c.Request().Context(), c.Param("projectId"), c.Param("actionKey"), ports.ActionPatch{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		IsDefault:       req.IsDefault,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, action)
}

// Delete handles DELETE /v1/projects/:projectId/actions/:actionKey.
//
// @Summary      Remove a catalog action
// @Tags         actions
// @Param        projectId  path  string  true  "Project ID"
// @Param        actionKey  path  string  true  "Action key"
// @Success      204
// @Failure      409  {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/actions/{actionKey} [delete]
func (h *ActionHandler) Delete(c echo.Context) error {
	if err := h.catalog.Delete(c.Request().Context(), c.Param("projectId"), c.Param("actionKey")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
