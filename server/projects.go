package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

type createProjectRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"required,oneof=active completed"`
	Deadline    string  `json:"deadline"`
	ClientID    int64   `json:"client_id" validate:"required"`
}

type updateProjectRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Deadline    string  `json:"deadline"`
	ClientID    int64   `json:"client_id"`
}

func (s *Server) handleListProjects(c echo.Context) error {
	var clientID *int64
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fail(c, http.StatusUnprocessableEntity, "The client_id must be an integer.")
		}
		clientID = &id
	}

	projects, err := s.store.ListProjects(c.Request().Context(), userID(c), clientID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req createProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	deadline, derr := parseDeadline(req.Deadline)
	if derr != nil {
		return fail(c, http.StatusUnprocessableEntity, "Project deadline must be a valid date.")
	}

	ctx := c.Request().Context()
	uid := userID(c)

	// Referenced client must belong to the same user at write time.
	if _, err := s.store.GetClient(ctx, req.ClientID, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, http.StatusUnprocessableEntity, "Client does not exist for this user.")
		}
		return respondError(c, err)
	}

	project := &model.Project{
		UserID:      uid,
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Deadline:    deadline,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusCreated, "Project created successfully", project)
}

func (s *Server) handleShowProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project not found.")
	}
	project, err := s.store.GetProject(c.Request().Context(), id, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, project)
}

// handleUpdateProject applies supplied fields only. An unknown status
// is ignored, not rejected.
func (s *Server) handleUpdateProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project not found.")
	}

	var req updateProjectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	uid := userID(c)
	project, err := s.store.GetProject(ctx, id, uid)
	if err != nil {
		return respondError(c, err)
	}

	if req.Title != "" {
		project.Title = req.Title
	}
	if req.Description != nil && *req.Description != "" {
		project.Description = req.Description
	}
	if model.ValidStatus(req.Status) {
		project.Status = req.Status
	}
	if req.Deadline != "" {
		deadline, derr := parseDeadline(req.Deadline)
		if derr != nil {
			return fail(c, http.StatusUnprocessableEntity, "Project deadline must be a valid date.")
		}
		project.Deadline = deadline
	}
	if req.ClientID != 0 {
		if _, err := s.store.GetClient(ctx, req.ClientID, uid); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fail(c, http.StatusUnprocessableEntity, "Client does not exist for this user.")
			}
			return respondError(c, err)
		}
		project.ClientID = req.ClientID
	}

	if err := s.store.UpdateProject(ctx, project); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusOK, "Project updated successfully", project)
}

// handleDeleteProject removes the project and its time logs in one
// transaction.
func (s *Server) handleDeleteProject(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project not found.")
	}

	err = s.store.DeleteProjectCascade(c.Request().Context(), id, userID(c))
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Project not found.")
	}
	if err != nil {
		s.log.Error().Err(err).Int64("project_id", id).Msg("project cascade delete failed")
		return fail(c, http.StatusInternalServerError, "Error deleting project: "+err.Error())
	}
	return okMsg(c, http.StatusOK, "Project deleted successfully", nil)
}

// parseDeadline accepts a calendar date or a full timestamp.
func parseDeadline(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := track.ParseDate(raw); err == nil {
		return &t, nil
	}
	t, err := track.ParseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
