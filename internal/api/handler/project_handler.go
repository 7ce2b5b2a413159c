package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// ProjectHandler handles HTTP requests for projects and their members.
type ProjectHandler struct {
	projects ports.ProjectService
	members  ports.MemberService
}

func NewProjectHandler(projects ports.ProjectService, members ports.MemberService) *ProjectHandler {
	return &ProjectHandler{projects: projects, members: members}
}

// Create handles POST /v1/projects. The caller becomes the owner; a tenantId
// files the project under one of the caller's tenants.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createProjectRequest  true   "Project"
// @Success      201              {object}  envelope{data=domain.Project}
// @Failure      400              {object}  api.errorResponse
// @Router       /v1/projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	project, err := h.projects.Create(c.Request().Context(), ports.CreateProjectInput{
		Name:           req.Name,
		Description:    req.Description,
		OwnerID:        userID,
		Settings:       req.Settings,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
		TenantID:       req.TenantID,
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("project").Inc()
	return respond(c, http.StatusCreated, project)
}

// List handles GET /v1/projects: every project the caller is a member of,
// or only the owned ones with ?owned=true.
//
// @Summary      List the caller's projects
// @Tags         projects
// @Produce      json
// @Param        owned  query     bool  false  "Only projects owned by the caller"
// @Success      200    {object}  envelope{data=[]domain.Project}
// @Router       /v1/projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var projects []domain.Project
	if queryBool(c, "owned") {
		projects, err = h.projects.ListOwned(ctx, userID)
	} else {
		projects, err = h.projects.ListByUser(ctx, userID)
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, projects)
}

// Get handles GET /v1/projects/:projectId.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=domain.Project}
// @Failure      403        {object}  api.errorResponse
// @Failure      404        {object}  api.errorResponse
// @Router       /v1/projects/{projectId} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	project, err := h.projects.Get(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, project)
}

// Update handles PATCH /v1/projects/:projectId.
//
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        projectId  path      string                true   "Project ID"
// @Param        If-Match   header    string                false  "Expected version"
// @Param        body       body      updateProjectRequest  true   "Fields to change"
// @Success      200        {object}  envelope{data=domain.Project}
// @Failure      409        {object}  api.errorResponse
// @Router       /v1/projects/{projectId} [patch]
func (h *ProjectHandler) Update(c echo.Context) error {
	var req updateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	project, err := h.projects.Update(c.Request().Context(), c.Param("projectId"), ports.ProjectPatch{
		Name:            req.Name,
		Description:     req.Description,
		Status:          convert[domain.ProjectStatus](req.Status),
		Settings:        req.Settings,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, project)
}

// Delete handles DELETE /v1/projects/:projectId along with everything the
// project contains.
//
// @Summary      Delete a project
// @Tags         projects
// @Param        projectId  path  string  true  "Project ID"
// @Success      204
// @Failure      403  {object}  api.errorResponse
// @Router       /v1/projects/{projectId} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	if err := h.projects.Delete(c.Request().Context(), c.Param("projectId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Members ---

// ListMembers handles GET /v1/projects/:projectId/members.
//
// @Summary      List project members
// @Tags         members
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=[]domain.ProjectMember}
// @Router       /v1/projects/{projectId}/members [get]
func (h *ProjectHandler) ListMembers(c echo.Context) error {
	members, err := h.members.List(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, members)
}

// AddMember handles POST /v1/projects/:projectId/members.
//
// @Summary      Add a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        projectId  path      string            true  "Project ID"
// @Param        body       body      addMemberRequest  true  "Member"
// @Success      201        {object}  envelope{data=domain.ProjectMember}
// @Failure      409        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/members [post]
func (h *ProjectHandler) AddMember(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req addMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.members.Add(c.Request().Context(), ports.AddMemberInput{
		ProjectID: c.Param("projectId"),
		UserID:    req.UserID,
		Role:      domain.Role(req.Role),
		InvitedBy: userID,
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("member").Inc()
	return respond(c, http.StatusCreated, member)
}

// UpdateMember handles PATCH /v1/projects/:projectId/members/:userId.
//
// @Summary      Change a member's role
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        projectId  path      string               true   "Project ID"
// @Param        userId     path      string               true   "User ID"
// @Param        If-Match   header    string               false  "Expected version"
// @Param        body       body      updateMemberRequest  true   "Role"
// @Success      200        {object}  envelope{data=domain.ProjectMember}
// @Router       /v1/projects/{projectId}/members/{userId} [patch]
func (h *ProjectHandler) UpdateMember(c echo.Context) error {
	var req updateMemberRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	member, err := h.members.UpdateRole(c.Request().Context(), c.Param("projectId"), c.Param("userId"), domain.Role(req.Role), version)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, member)
}

// RemoveMember handles DELETE /v1/projects/:projectId/members/:userId.
//
// @Summary      Remove a member
// @Tags         members
// @Param        projectId  path  string  true  "Project ID"
// @Param        userId     path  string  true  "User ID"
// @Success      204
// @Router       /v1/projects/{projectId}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(c echo.Context) error {
	if err := h.members.Remove(c.Request().Context(), c.Param("projectId"), c.Param("userId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
