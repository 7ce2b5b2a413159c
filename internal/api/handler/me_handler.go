package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// MeHandler serves views scoped to the calling user.
type MeHandler struct {
	users         ports.UserService
	matrix        ports.MatrixService
	notifications ports.NotificationService
}

func NewMeHandler(users ports.UserService, matrix ports.MatrixService, notifications ports.NotificationService) *MeHandler {
	return &MeHandler{users: users, matrix: matrix, notifications: notifications}
}

// Get handles GET /v1/me.
//
// @Summary      Current user
// @Tags         me
// @Produce      json
// @Success      200  {object}  envelope{data=meResponse}
// @Failure      404  {object}  api.errorResponse
// @Router       /v1/me [get]
func (h *MeHandler) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	unread, err := h.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, meResponse{User: user, UnreadCount: unread})
}

// Assignments handles GET /v1/me/assignments: matrix cells whose primary
// assignee is the caller, ordered by due date.
//
// @Summary      Cells assigned to the caller
// @Tags         me
// @Produce      json
// @Param        from   query     string  false  "Earliest due date (YYYY-MM-DD)"
// @Param        to     query     string  false  "Latest due date (YYYY-MM-DD)"
// @Param        limit  query     int     false  "Maximum results"
// @Success      200    {object}  envelope{data=[]domain.MatrixTask}
// @Failure      400    {object}  api.errorResponse
// @Router       /v1/me/assignments [get]
func (h *MeHandler) Assignments(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	cells, err := h.matrix.ListByAssignee(c.Request().Context(), ports.AssignmentQuery{
		UserID:  userID,
		DueFrom: c.QueryParam("from"),
		DueTo:   c.QueryParam("to"),
		Limit:   limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cells)
}
