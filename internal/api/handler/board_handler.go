package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wolvesgale/ToDo-Appli/internal/api/metrics"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

const maxImportBytes = 5 << 20

// BoardHandler handles HTTP requests for the stages and targets that span
// the matrix.
type BoardHandler struct {
	stages  ports.StageService
	targets ports.TargetService
}

func NewBoardHandler(stages ports.StageService, targets ports.TargetService) *BoardHandler {
	return &BoardHandler{stages: stages, targets: targets}
}

// --- Stages ---

// CreateStage handles POST /v1/projects/:projectId/stages.
//
// @Summary      Create a stage
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        projectId  path      string              true  "Project ID"
// @Param        body       body      createStageRequest  true  "Stage"
// @Success      201        {object}  envelope{data=domain.Stage}
// @Router       /v1/projects/{projectId}/stages [post]
func (h *BoardHandler) CreateStage(c echo.Context) error {
	var req createStageRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	stage, err := h.stages.Create(c.Request().Context(), ports.CreateStageInput{
		ProjectID:   c.Param("projectId"),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Order:       req.Order,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("stage").Inc()
	return respond(c, http.StatusCreated, stage)
}

// ListStages handles GET /v1/projects/:projectId/stages.
//
// @Summary      List stages in display order
// @Tags         stages
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Success      200        {object}  envelope{data=[]domain.Stage}
// @Router       /v1/projects/{projectId}/stages [get]
func (h *BoardHandler) ListStages(c echo.Context) error {
	stages, err := h.stages.List(c.Request().Context(), c.Param("projectId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stages)
}

// GetStage handles GET /v1/projects/:projectId/stages/:stageId.
//
// @Summary      Get a stage
// @Tags         stages
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        stageId    path      string  true  "Stage ID"
// @Success      200        {object}  envelope{data=domain.Stage}
// @Router       /v1/projects/{projectId}/stages/{stageId} [get]
func (h *BoardHandler) GetStage(c echo.Context) error {
	stage, err := h.stages.Get(c.Request().Context(), c.Param("projectId"), c.Param("stageId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stage)
}

// UpdateStage handles PATCH /v1/projects/:projectId/stages/:stageId.
//
// @Summary      Update a stage
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        projectId  path      string              true   "Project ID"
// @Param        stageId    path      string              true   "Stage ID"
// @Param        If-Match   header    string              false  "Expected version"
// @Param        body       body      updateStageRequest  true   "Fields to change"
// @Success      200        {object}  envelope{data=domain.Stage}
// @Router       /v1/projects/{projectId}/stages/{stageId} [patch]
func (h *BoardHandler) UpdateStage(c echo.Context) error {
	var req updateStageRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	stage, err := h.stages.Update(c.Request().Context(), c.Param("projectId"), c.Param("stageId"), ports.StagePatch{
		Name:            req.Name,
		Description:     req.Description,
		Color:           req.Color,
		Order:           req.Order,
		IsActive:        req.IsActive,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, stage)
}

// DeleteStage handles DELETE /v1/projects/:projectId/stages/:stageId.
//
// @Summary      Delete a stage
// @Tags         stages
// @Param        projectId  path  string  true  "Project ID"
// @Param        stageId    path  string  true  "Stage ID"
// @Success      204
// @Router       /v1/projects/{projectId}/stages/{stageId} [delete]
func (h *BoardHandler) DeleteStage(c echo.Context) error {
	if err := h.stages.Delete(c.Request().Context(), c.Param("projectId"), c.Param("stageId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Targets ---

// CreateTarget handles POST /v1/projects/:projectId/targets.
//
// @Summary      Create a target
// @Tags         targets
// @Accept       json
// @Produce      json
// @Param        projectId  path      string               true  "Project ID"
// @Param        body       body      createTargetRequest  true  "Target"
// @Success      201        {object}  envelope{data=domain.Target}
// @Router       /v1/projects/{projectId}/targets [post]
func (h *BoardHandler) CreateTarget(c echo.Context) error {
	var req createTargetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	target, err := h.targets.Create(c.Request().Context(), ports.CreateTargetInput{
		ProjectID:   c.Param("projectId"),
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Phone:       req.Phone,
		Order:       req.Order,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("target").Inc()
	return respond(c, http.StatusCreated, target)
}

// ImportTargets handles POST /v1/projects/:projectId/targets/import. The CSV
// comes either as a multipart "file" field or as a text/csv body.
//
// @Summary      Import targets from CSV
// @Tags         targets
// @Accept       multipart/form-data
// @Accept       text/csv
// @Produce      json
// @Param        projectId  path      string  true   "Project ID"
// @Param        file       formData  file    false  "CSV file with a header row"
// @Success      201        {object}  envelope{data=ports.ImportResult}
// @Failure      400        {object}  api.errorResponse
// @Router       /v1/projects/{projectId}/targets/import [post]
func (h *BoardHandler) ImportTargets(c echo.Context) error {
	var body io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing file field")
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
		}
		defer f.Close()
		body = f
	}

	result, err := h.targets.ImportCSV(c.Request().Context(), c.Param("projectId"), io.LimitReader(body, maxImportBytes))
	if err != nil {
		return err
	}
	metrics.EntitiesCreatedTotal.WithLabelValues("target").Add(float64(len(result.Created)))
	return respond(c, http.StatusCreated, result)
}

// ListTargets handles GET /v1/projects/:projectId/targets.
//
// @Summary      List targets in display order
// @Tags         targets
// @Produce      json
// @Param        projectId        path      string  true   "Project ID"
// @Param        includeArchived  query     bool    false  "Include archived targets"
// @Success      200              {object}  envelope{data=[]domain.Target}
// @Router       /v1/projects/{projectId}/targets [get]
func (h *BoardHandler) ListTargets(c echo.Context) error {
	targets, err := h.targets.List(c.Request().Context(), c.Param("projectId"), queryBool(c, "includeArchived"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, targets)
}

// GetTarget handles GET /v1/projects/:projectId/targets/:targetId.
//
// @Summary      Get a target
// @Tags         targets
// @Produce      json
// @Param        projectId  path      string  true  "Project ID"
// @Param        targetId   path      string  true  "Target ID"
// @Success      200        {object}  envelope{data=domain.Target}
// @Router       /v1/projects/{projectId}/targets/{targetId} [get]
func (h *BoardHandler) GetTarget(c echo.Context) error {
	target, err := h.targets.Get(c.Request().Context(), c.Param("projectId"), c.Param("targetId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, target)
}

// UpdateTarget handles PATCH /v1/projects/:projectId/targets/:targetId.
//
// @Summary      Update a target
// @Tags         targets
// @Accept       json
// @Produce      json
// @Param        projectId  path      string               true   "Project ID"
// @Param        targetId   path      string               true   "Target ID"
// @Param        If-Match   header    string               false  "Expected version"
// @Param        body       body      updateTargetRequest  true   "Fields to change"
// @Success      200        {object}  envelope{data=domain.Target}
// @Router       /v1/projects/{projectId}/targets/{targetId} [patch]
func (h *BoardHandler) UpdateTarget(c echo.Context) error {
	var req updateTargetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	version, err := expectedVersion(c, req.Version)
	if err != nil {
		return err
	}

	target, err := h.targets.Update(c.Request().Context(), c.Param("projectId"), c.Param("targetId"), ports.TargetPatch{
		Name:            req.Name,
		DisplayName:     req.DisplayName,
		Email:           req.Email,
		Phone:           req.Phone,
		Order:           req.Order,
		Archived:        req.Archived,
		Metadata:        req.Metadata,
		ExpectedVersion: version,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, target)
}

// DeleteTarget handles DELETE /v1/projects/:projectId/targets/:targetId and
// the matrix cells in its row.
//
// @Summary      Delete a target
// @Tags         targets
// @Param        projectId  path  string  true  "Project ID"
// @Param        targetId   path  string  true  "Target ID"
// @Success      204
// @Router       /v1/projects/{projectId}/targets/{targetId} [delete]
func (h *BoardHandler) DeleteTarget(c echo.Context) error {
	if err := h.targets.Delete(c.Request().Context(), c.Param("projectId"), c.Param("targetId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
