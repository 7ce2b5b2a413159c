package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// InvitationHandler handles HTTP requests for project invitations.
type InvitationHandler struct {
	invitations ports.InvitationService
	users       ports.UserService
}

func NewInvitationHandler(invitations ports.InvitationService, users ports.UserService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations, users: users}
}

// Create handles POST /v1/projects/:projectId/invitations.
//
// @Summary      Invite someone to a project
// @Description  The response carries the plaintext token exactly once.
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        projectId  path      string                   true  "Project ID"
// @Param        body       body      createInvitationRequest  true  "Invitee"
// @Success      201        {object}  envelope{data=createInvitationResponse}
// @Router       /v1/projects/{projectId}/invitations [post]
func (h *InvitationHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createInvitationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inv, token, err := h.invitations.Create(c.Request().Context(), ports.CreateInvitationInput{
		ProjectID: c.Param("projectId"),
		InviterID: userID,
		Email:     req.Email,
		Role:      domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("invitation").Inc()
	return respond(c, http.StatusCreated, createInvitationResponse{Invitation: inv, Token: token})
}

// List handles GET /v1/projects/:projectId/invitations.
//
// @Summary      List a project's invitations
// @Tags         invitations
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=[]domain.Invitation}
// @Router       /v1/projects/{projectId}/invitations [get]
func (h *InvitationHandler) List(c echo.Context) error {
	invs, err := h.invitations.List(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, invs)
}

// Revoke handles DELETE /v1/projects/:projectId/invitations/:invitationId.
//
// @Summary      Revoke an invitation
// @Tags         invitations
// @Param        projectId     path  string  true  "Project ID"
// @Param        invitationId  path  string  true  "Invitation ID"
// @Success      204
// @Router       /v1/projects/{projectId}/invitations/{invitationId} [delete]
func (h *InvitationHandler) Revoke(c echo.Context) error {
	if err := h.invitations.Revoke(c.Request().Context(), c.Param("projectId"), c.Param("invitationId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Accept handles POST /v1/projects/:projectId/invitations/:invitationId/accept.
// The caller joins the project with the invited role.
//
// @Summary      Accept an invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        projectId     path      string                    true  "Project ID"
// @Param        invitationId  path      string                    true  "Invitation ID"
// @Param        body          body      respondInvitationRequest  true  "Token"
// @Success      200           {object}  envelope{data=domain.ProjectMember}
// @Failure      403           {object}  api.errorResponse
// @Failure      409           {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/invitations/{invitationId}/accept [post]
func (h *InvitationHandler) Accept(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req respondInvitationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	member, err := h.invitations.Accept(c.Request().Context(), c.Param("projectId"), c.Param("invitationId"), req.Token, userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, member)
}

// Decline handles POST /v1/projects/:projectId/invitations/:invitationId/decline.
//
// @Summary      Decline an invitation
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        projectId     path      string                    true  "Project ID"
// @Param        invitationId  path      string                    true  "Invitation ID"
// @Param        body          body      respondInvitationRequest  true  "Token"
// @Success      200           {object}  envelope{data=domain.Invitation}
// @Router       /v1/projects/{projectId}/invitations/{invitationId}/decline [post]
func (h *InvitationHandler) Decline(c echo.Context) error {
	var req respondInvitationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	inv, err := h.invitations.Decline(c.Request().Context(), c.Param("projectId"), c.Param("invitationId"), req.Token)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, inv)
}

// Mine handles GET /v1/invitations: invitations addressed to the caller's
// email across all projects.
//
// @Summary      List invitations for the caller
// @Tags         invitations
// @Produce      json
// @Success      200  {object}  envelope{data=[]domain.Invitation}
// @Router       /v1/invitations [get]
func (h *InvitationHandler) Mine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	invs, err := h.invitations.ListForEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, invs)
}
