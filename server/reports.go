package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tickbook/tickbook/internal/report"
	"github.com/tickbook/tickbook/internal/track"
)

// handleReport returns the by-date / by-project / by-client aggregation
// as JSON.
func (s *Server) handleReport(c echo.Context) error {
	startDate, endDate, err := reportWindow(c)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}

	rep, rerr := s.agg.Build(c.Request().Context(), userID(c), startDate, endDate)
	if rerr != nil {
		return respondError(c, rerr)
	}
	return okMsg(c, http.StatusOK, "Report generated successfully.", rep)
}

// handleReportExport renders the same aggregation as a downloadable
// PDF.
func (s *Server) handleReportExport(c echo.Context) error {
	startDate, endDate, err := reportWindow(c)
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, err.Error())
	}

	rep, rerr := s.agg.Build(c.Request().Context(), userID(c), startDate, endDate)
	if rerr != nil {
		return respondError(c, rerr)
	}

	pdfBytes, perr := report.RenderPDF(rep, startDate, endDate)
	if perr != nil {
		s.log.Error().Err(perr).Msg("report pdf rendering failed")
		return fail(c, http.StatusInternalServerError, "internal error")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

func reportWindow(c echo.Context) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if raw := c.QueryParam("start_date"); raw != "" {
		d, err := track.ParseDate(raw)
		if err != nil {
			return nil, nil, errInvalidParam("start_date", "a date (YYYY-MM-DD)")
		}
		startDate = &d
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		d, err := track.ParseDate(raw)
		if err != nil {
			return nil, nil, errInvalidParam("end_date", "a date (YYYY-MM-DD)")
		}
		endDate = &d
	}
	return startDate, endDate, nil
}
