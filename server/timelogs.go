package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

type createTimeLogRequest struct {
	ProjectID   int64  `json:"project_id" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

type updateTimeLogRequest struct {
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

type timerRequest struct {
	Description string `json:"description"`
	Tag         string `json:"tag"`
}

func (s *Server) handleListTimeLogs(c echo.Context) error {
	filter, err := timeLogFilter(c)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}
	logs, lerr := s.store.ListTimeLogs(c.Request().Context(), userID(c), filter)
	if lerr != nil {
		return respondError(c, lerr)
	}
	return ok(c, http.StatusOK, logs)
}

// handleCreateTimeLog stores a manual entry. Omitting end_time creates
// a running log.
func (s *Server) handleCreateTimeLog(c echo.Context) error {
	var req createTimeLogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start, err := track.ParseTimestamp(req.StartTime)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "The start time must be a valid date and time.")
	}
	var end *time.Time
	if req.EndTime != "" {
		v, err := track.ParseTimestamp(req.EndTime)
		if err != nil {
			return fail(c, http.StatusUnprocessableEntity, "The end time must be a valid date and time.")
		}
		end = &v
	}

	entry, err := s.engine.Create(c.Request().Context(), userID(c), track.EntryInput{
		ProjectID:   req.ProjectID,
		StartTime:   start,
		EndTime:     end,
		Description: req.Description,
		Tag:         optional(req.Tag),
	})
	if err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusCreated, "Project time log created successfully.", entry)
}

func (s *Server) handleShowTimeLog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project time log not found.")
	}
	entry, err := s.store.GetTimeLog(c.Request().Context(), id, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, entry)
}

func (s *Server) handleUpdateTimeLog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project time log not found.")
	}

	var req updateTimeLogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var in track.UpdateInput
	if req.StartTime != "" {
		v, err := track.ParseTimestamp(req.StartTime)
		if err != nil {
			return fail(c, http.StatusUnprocessableEntity, "The start time must be a valid date and time.")
		}
		in.StartTime = &v
	}
	if req.EndTime != "" {
		v, err := track.ParseTimestamp(req.EndTime)
		if err != nil {
			return fail(c, http.StatusUnprocessableEntity, "The end time must be a valid date and time.")
		}
		in.EndTime = &v
	}
	in.Description = optional(req.Description)
	in.Tag = optional(req.Tag)

	entry, uerr := s.engine.Update(c.Request().Context(), userID(c), id, in)
	if uerr != nil {
		return respondError(c, uerr)
	}
	return okMsg(c, http.StatusOK, "Project time log updated successfully.", entry)
}

func (s *Server) handleDeleteTimeLog(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project time log not found.")
	}
	if err := s.engine.Delete(c.Request().Context(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusOK, "Project time log deleted successfully.", nil)
}

// handleStartTimeLog begins a timer on the project in the path.
func (s *Server) handleStartTimeLog(c echo.Context) error {
	projectID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project not found.")
	}

	var req timerRequest
	_ = c.Bind(&req) // body is optional

	entry, serr := s.engine.Start(c.Request().Context(), userID(c), projectID, req.Description, optional(req.Tag))
	if serr != nil {
		return respondError(c, serr)
	}
	return okMsg(c, http.StatusCreated, "Project time log started successfully.", entry)
}

// handleStopTimeLog ends the running timer on the project in the path.
func (s *Server) handleStopTimeLog(c echo.Context) error {
	projectID, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Project not found.")
	}

	entry, serr := s.engine.Stop(c.Request().Context(), userID(c), projectID)
	if serr != nil {
		return respondError(c, serr)
	}
	return okMsg(c, http.StatusOK, "Project time log stopped successfully.", entry)
}

// handleTotalHours sums matching hours, folding in the elapsed time of
// a still-running latest log.
func (s *Server) handleTotalHours(c echo.Context) error {
	filter, err := timeLogFilter(c)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}

	total, terr := s.agg.TotalHours(c.Request().Context(), userID(c), filter)
	if terr != nil {
		return respondError(c, terr)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total_hours": total,
		"status":      http.StatusOK,
	})
}

// timeLogFilter reads the shared query filters. Dates are validated
// strictly before any query is built.
func timeLogFilter(c echo.Context) (store.TimeLogFilter, error) {
	var f store.TimeLogFilter

	if raw := c.QueryParam("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errInvalidParam("project_id", "an integer")
		}
		f.ProjectID = &id
	}
	if raw := c.QueryParam("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errInvalidParam("client_id", "an integer")
		}
		f.ClientID = &id
	}
	if raw := c.QueryParam("start_date"); raw != "" {
		d, err := track.ParseDate(raw)
		if err != nil {
			return f, errInvalidParam("start_date", "a date (YYYY-MM-DD)")
		}
		f.StartDate = &d
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		d, err := track.ParseDate(raw)
		if err != nil {
			return f, errInvalidParam("end_date", "a date (YYYY-MM-DD)")
		}
		f.EndDate = &d
	}
	return f, nil
}

type paramError struct{ msg string }

func (e paramError) Error() string { return e.msg }

func errInvalidParam(name, want string) error {
	return paramError{msg: "The " + name + " must be " + want + "."}
}

// optional maps an empty string to absent.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
