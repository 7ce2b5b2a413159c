package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// TenantHandler handles HTTP requests for tenants, their members and the
// projects filed under them.
type TenantHandler struct {
	tenants ports.TenantService
}

func NewTenantHandler(tenants ports.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Create handles POST /v1/tenants. The caller becomes the owner.
//
// @Summary      Create a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        body  body      createTenantRequest  true  "Tenant"
// @Success      201   {object}  envelope{data=domain.Tenant}
// @Failure      400   {object}  api.errorResponse
// @Router       /v1/tenants [post]
func (h *TenantHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createTenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	tenant, err := h.tenants.Create(c.Request().Context(), ports.CreateTenantInput{Name: req.Name, OwnerID: userID})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("tenant").Inc()
	return respond(c, http.StatusCreated, tenant)
}

// List handles GET /v1/tenants: the tenants the caller belongs to.
//
// @Summary      List the caller's tenants
// @Tags         tenants
// @Produce      json
// @Success      200  {object}  envelope{data=[]domain.Tenant}
// @Router       /v1/tenants [get]
func (h *TenantHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	tenants, err := h.tenants.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tenants)
}

// Get handles GET /v1/tenants/:tenantId.
//
// @Summary      Get a tenant
// @Tags         tenants
// @Produce      json
// @Param        tenantId  path      string  true  "Tenant ID"
// @Success      200       {object}  envelope{data=domain.Tenant}
// @Failure      404       {object}  api.errorResponse
// @Router       /v1/tenants/{tenantId} [get]
func (h *TenantHandler) Get(c echo.Context) error {
	tenant, err := h.tenants.Get(c.Request().Context(), c.Param("tenantId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tenant)
}

// Update handles PATCH /v1/tenants/:tenantId.
//
// @Summary      Rename a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        tenantId  path      string               true   "Tenant ID"
// @Param        If-Match  header    string               false  "Expected version"
// @Param        body      body      updateTenantRequest  true   "Fields to change"
// @Success      200       {object}  envelope{data=domain.Tenant}
// @Failure      409       {object}  api.errorResponse
// @Router       /v1/tenants/{tenantId} [patch]
func (h *TenantHandler) Update(c echo.Context) error {
	var req updateTenantRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	tenant, err := h.tenants.Update(c.Request().Context(), c.Param("tenantId"), ports.TenantPatch{
		Name:            req.Name,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tenant)
}

// Delete handles DELETE /v1/tenants/:tenantId. The tenant must have no
// projects left.
//
// @Summary      Delete a tenant
// @Tags         tenants
// @Param        tenantId  path  string  true  "Tenant ID"
// @Success      204
// @Failure      409  {object}  api.errorResponse
// @Router       /v1/tenants/{tenantId} [delete]
func (h *TenantHandler) Delete(c echo.Context) error {
	if err := h.tenants.Delete(c.Request().Context(), c.Param("tenantId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProjects handles GET /v1/tenants/:tenantId/projects.
//
// @Summary      List the tenant's projects
// @Tags         tenants
// @Produce      json
// @Param        tenantId  path      string  true  "Tenant ID"
// @Success      200       {object}  envelope{data=[]domain.Project}
// @Router       /v1/tenants/{tenantId}/projects [get]
func (h *TenantHandler) ListProjects(c echo.Context) error {
	projects, err := h.tenants.ListProjects(c.Request().Context(), c.Param("tenantId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, projects)
}

// ListMembers handles GET /v1/tenants/:tenantId/members.
//
// @Summary      List tenant members
// @Tags         tenants
// @Produce      json
// @Param        tenantId  path      string  true  "Tenant ID"
// @Success      200       {object}  envelope{data=[]domain.TenantMembership}
// @Router       /v1/tenants/{tenantId}/members [get]
func (h *TenantHandler) ListMembers(c echo.Context) error {
	members, err := h.tenants.ListMembers(c.Request().Context(), c.Param("tenantId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, members)
}

// AddMember handles POST /v1/tenants/:tenantId/members.
//
// @Summary      Add a tenant member
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        tenantId  path      string                  true  "Tenant ID"
// @Param        body      body      addTenantMemberRequest  true  "Member"
// @Success      201       {object}  envelope{data=domain.TenantMembership}
// @Failure      409       {object}  api.errorResponse
// @Router       /v1/tenants/{tenantId}/members [post]
func (h *TenantHandler) AddMember(c echo.Context) error {
	var req addTenantMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.tenants.AddMember(c.Request().Context(), ports.AddTenantMemberInput{
		TenantID: c.Param("tenantId"),
		UserID:   req.UserID,
		Role:     domain.TenantRole(req.Role),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, m)
}

// RemoveMember handles DELETE /v1/tenants/:tenantId/members/:userId.
//
// @Summary      Remove a tenant member
// @Tags         tenants
// @Param        tenantId  path  string  true  "Tenant ID"
// @Param        userId    path  string  true  "User ID"
// @Success      204
// @Router       /v1/tenants/{tenantId}/members/{userId} [delete]
func (h *TenantHandler) RemoveMember(c echo.Context) error {
	if err := h.tenants.RemoveMember(c.Request().Context(), c.Param("tenantId"), c.Param("userId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
