package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// NotificationHandler serves the caller's notification inbox.
type NotificationHandler struct {
	notifications ports.NotificationService
}

func NewNotificationHandler(notifications ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /v1/notifications, newest first.
//
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Param        unread  query     bool  false  "Only unread notifications"
// @Param        limit   query     int   false  "Maximum results"
// @Success      200     {object}  envelope{data=[]domain.Notification}
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}

	list, err := h.notifications.List(c.Request().Context(), userID, ports.NotificationFilter{
		UnreadOnly: queryBool(c, "unread"),
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, list)
}

// UnreadCount handles GET /v1/notifications/unread-count.
//
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  envelope{data=countResponse}
// @Router       /v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, countResponse{Count: n})
}

// MarkRead handles POST /v1/notifications/:notificationId/read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        notificationId  path      string  true  "Notification ID"
// @Success      200             {object}  envelope{data=domain.Notification}
// @Failure      404             {object}  api.errorResponse
// @Router       /v1/notifications/{notificationId}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkRead(c.Request().Context(), userID, c.Param("notificationId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, n)
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  envelope{data=countResponse}
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, countResponse{Count: n})
}

// Delete handles DELETE /v1/notifications/:notificationId.
//
// @Summary      Delete a notification
// @Tags         notifications
// @Param        notificationId  path  string  true  "Notification ID"
// @Success      204
// @Router       /v1/notifications/{notificationId} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Request().Context(), userID, c.Param("notificationId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
