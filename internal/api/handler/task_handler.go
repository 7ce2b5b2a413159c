package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// TaskHandler handles HTTP requests for project tasks.
type TaskHandler struct {
	tasks ports.TaskService
}

func NewTaskHandler(tasks ports.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create handles POST /v1/projects/:projectId/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        projectId        path      string             true   "Project ID"
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createTaskRequest  true   "Task"
// @Success      201              {object}  envelope{data=domain.Task}
// @Failure      400              {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), ports.CreateTaskInput{
		ProjectID:      c.Param("projectId"),
		Title:          req.Title,
		Description:    req.Description,
		Status:         domain.TaskStatus(req.Status),
		Priority:       domain.Priority(req.Priority),
		AssigneeID:     req.AssigneeID,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		Matrix:         req.Matrix.position(),
		CreatedBy:      userID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("task").Inc()
	return respond(c, http.StatusCreated, task)
}

// List handles GET /v1/projects/:projectId/tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        projectId   path      string  true   "Project ID"
// @Param        status      query     string  false  "todo, in_progress, done or archived"
// @Param        priority    query     string  false  "low, medium, high or urgent"
// @Param        assigneeId  query     string  false  "Assignee user ID"
// @Param        tag         query     string  false  "Tag"
// @Param        limit       query     int     false  "Maximum results"
// @Success      200         {object}  envelope{data=[]domain.Task}
// @Router       /v1/projects/{projectId}/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.ListByProject(c.Request().Context(), c.Param("projectId"), ports.TaskFilter{
		Status:     domain.TaskStatus(c.QueryParam("status")),
		Priority:   domain.Priority(c.QueryParam("priority")),
		AssigneeID: c.QueryParam("assigneeId"),
		Tag:        c.QueryParam("tag"),
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tasks)
}

// Quadrants handles GET /v1/projects/:projectId/tasks/quadrants.
//
// @Summary      Group tasks by priority-matrix quadrant
// @Tags         tasks
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=map[string][]domain.Task}
// @Router       /v1/projects/{projectId}/tasks/quadrants [get]
func (h *TaskHandler) Quadrants(c echo.Context) error {
	groups, err := h.tasks.Quadrants(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, groups)
}

// Get handles GET /v1/projects/:projectId/tasks/:taskId.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        taskId     path      string  true  "Task ID"
// @Success      200        {object}  envelope{data=domain.Task}
// @Failure      404        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/tasks/{taskId} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.tasks.Get(c.Request().Context(), c.Param("projectId"), c.Param("taskId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task)
}

// Update handles PATCH /v1/projects/:projectId/tasks/:taskId.
//
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        projectId  path      string             true   "Project ID"
// @Param        taskId     path      string             true   "Task ID"
// @Param        If-Match   header    string             false  "Expected version"
// @Param        body       body      updateTaskRequest  true   "Fields to change"
// @Success      200        {object}  envelope{data=domain.Task}
// @Failure      409        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/tasks/{taskId} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	task, err := h.tasks.Update(c.Request().Context(), c.Param("projectId"), c.Param("taskId"), ports.TaskPatch{
		Title:           req.Title,
		Description:     req.Description,
		Status:          convert[domain.TaskStatus](req.Status),
		Priority:        convert[domain.Priority](req.Priority),
		AssigneeID:      req.AssigneeID,
		DueDate:         req.DueDate,
		Tags:            req.Tags,
		Matrix:          req.Matrix.position(),
		ExpectedVersion: version,
		ActorID:         userID,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task)
}

// Delete handles DELETE /v1/projects/:projectId/tasks/:taskId.
//
// @Summary      Delete a task
// @Tags         tasks
// @Param        projectId  path  string  true  "Project ID"
// @Param        taskId     path  string  true  "Task ID"
// @Success      204
// @Router       /v1/projects/{projectId}/tasks/{taskId} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.tasks.Delete(c.Request().Context(), c.Param("projectId"), c.Param("taskId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
