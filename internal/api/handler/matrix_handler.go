package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/domain"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

// MatrixHandler handles HTTP requests for the stage x target grid.
type MatrixHandler struct {
	matrix ports.MatrixService
}

func NewMatrixHandler(matrix ports.MatrixService) *MatrixHandler {
	return &MatrixHandler{matrix: matrix}
}

// View handles GET /v1/projects/:projectId/matrix.
//
// @Summary      Get the composed matrix of a project
// @Tags         matrix
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=ports.MatrixView}
// @Router       /v1/projects/{projectId}/matrix [get]
func (h *MatrixHandler) View(c echo.Context) error {
	view, err := h.matrix.View(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, view)
}

// ListRow handles GET /v1/projects/:projectId/matrix/:targetId.
//
// @Summary      List the cells of one target
// @Tags         matrix
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        targetId   path      string  true  "Target ID"
// @Success      200        {object}  envelope{data=[]domain.MatrixTask}
// @Router       /v1/projects/{projectId}/matrix/{targetId} [get]
func (h *MatrixHandler) ListRow(c echo.Context) error {
	cells, err := h.matrix.ListByTarget(c.Request().Context(), c.Param("projectId"), c.Param("targetId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cells)
}

// GetCell handles GET /v1/projects/:projectId/matrix/:targetId/:stageId.
//
// @Summary      Get one matrix cell
// @Tags         matrix
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        targetId   path      string  true  "Target ID"
// @Param        stageId    path      string  true  "Stage ID"
// @Success      200        {object}  envelope{data=domain.MatrixTask}
// @Failure      404        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/matrix/{targetId}/{stageId} [get]
func (h *MatrixHandler) GetCell(c echo.Context) error {
	cell, err := h.matrix.GetCell(c.Request().Context(), c.Param("projectId"), c.Param("targetId"), c.Param("stageId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cell)
}

// PutCell handles PUT /v1/projects/:projectId/matrix/:targetId/:stageId. The
// cell is created on first write and patched afterwards.
//
// @Summary      Create or update a matrix cell
// @Tags         matrix
// @Accept       json
// @Produce      json
// @Param        projectId  path      string             true   "Project ID"
// @Param        targetId   path      string             true   "Target ID"
// @Param        stageId    path      string             true   "Stage ID"
// @Param        If-Match   header    string             false  "Expected version"
// @Param        body       body      upsertCellRequest  true   "Fields to set"
// @Success      200        {object}  envelope{data=domain.MatrixTask}
// @Failure      409        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/matrix/{targetId}/{stageId} [put]
func (h *MatrixHandler) PutCell(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	var req upsertCellRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	cell, err := h.matrix.UpsertCell(c.Request().Context(), ports.UpsertCellInput{
		ProjectID:       c.Param("projectId"),
		TargetID:        c.Param("targetId"),
		StageID:         c.Param("stageId"),
		Status:          convert[domain.CellStatus](req.Status),
		DueDate:         req.DueDate,
		Assignees:       req.Assignees,
		ActionKey:       req.ActionKey,
		Note:            req.Note,
		Attachments:     req.Attachments,
		ExpectedVersion: version,
		ActorID:         userID,
	})
	if err != nil {
		return err
	}
	if cell.Version == 1 {
		metrics.EntitiesCreatedTotal.WithLabelValues("matrix_cell").Inc()
	}
	return respond(c, http.StatusOK, cell)
}

// DeleteCell handles DELETE /v1/projects/:projectId/matrix/:targetId/:stageId.
//
// @Summary      Delete a matrix cell
// @Tags         matrix
// @Param        projectId  path  string  true  "Project ID"
// @Param        targetId   path  string  true  "Target ID"
// @Param        stageId    path  string  true  "Stage ID"
// @Success      204
// @Router       /v1/projects/{projectId}/matrix/{targetId}/{stageId} [delete]
func (h *MatrixHandler) DeleteCell(c echo.Context) error {
	if err := h.matrix.DeleteCell(c.Request().Context(), c.Param("projectId"), c.Param("targetId"), c.Param("stageId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
