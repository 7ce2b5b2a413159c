package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// UserHandler handles HTTP requests for the user directory.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /v1/users.
//
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User"
// @Success      201   {object}  envelope{data=domain.User}
// @Failure      400   {object}  api.errorResponse
// @Failure      409   {object}  api.errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		ID:    req.ID,
		Email: req.Email,
		Name:  req.Name,
		Plan:  domain.SubscriptionPlan(req.Plan),
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("user").Inc()
	return respond(c, http.StatusCreated, user)
}

// List handles GET /v1/users. With ?q= it searches by name.
//
// @Summary      List or search users
// @Tags         users
// @Produce      json
// @Param        q      query     string  false  "Case-insensitive name fragment"
// @Param        limit  query     int     false  "Maximum results"
// @Success      200    {object}  envelope{data=[]domain.User}
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var users []domain.User
	if q := c.QueryParam("q"); q != "" {
		users, err = h.users.SearchByName(ctx, q, limit)
	} else {
		users, err = h.users.List(ctx, limit)
	}
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, users)
}

// Get handles GET /v1/users/:userId.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Param        userId  path      string  true  "User ID"
// @Success      200     {object}  envelope{data=domain.User}
// @Failure      404     {object}  api.errorResponse
// @Router       /v1/users/{userId} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// Update handles PATCH /v1/users/:userId. Users may only edit themselves.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        userId    path      string             true   "User ID"
// @Param        If-Match  header    string             false  "Expected version"
// @Param        body      body      updateUserRequest  true   "Fields to change"
// @Success      200       {object}  envelope{data=domain.User}
// @Failure      403       {object}  api.errorResponse
// @Failure      409       {object}  api.errorResponse
// @Router       /v1/users/{userId} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := h.self(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), id, ports.UserPatch{
		Email:           req.Email,
		Name:            req.Name,
		Subscription:    req.Subscription,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// Deactivate handles DELETE /v1/users/:userId.
//
// @Summary      Deactivate a user
// @Tags         users
// @Param        userId  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  api.errorResponse
// @Router       /v1/users/{userId} [delete]
func (h *UserHandler) Deactivate(c echo.Context) error {
	id, err := h.self(c)
	if err != nil {
		return err
	}
	if err := h.users.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) self(c echo.Context) (string, error) {
	caller, err := currentUser(c)
	if err != nil {
		return "", err
	}
	if id := c.Param("userId"); id != caller {
		return "", fmt.Errorf("%w: users can only change their own account", domain.ErrForbidden)
	}
	return caller, nil
}
