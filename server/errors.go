package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

// respondError maps the core error taxonomy to HTTP. Not-found and
// not-owned are indistinguishable on the wire.
func respondError(c echo.Context, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fail(c, http.StatusNotFound, "Not found.")
	}

	switch track.KindOf(err) {
	case track.KindValidation:
		return fail(c, http.StatusUnprocessableEntity, track.MessageOf(err))
	case track.KindNotFound:
		return fail(c, http.StatusNotFound, track.MessageOf(err))
	case track.KindConflict:
		return fail(c, http.StatusConflict, track.MessageOf(err))
	default:
		c.Logger().Error(err)
		return fail(c, http.StatusInternalServerError, "internal error")
	}
}

// fail writes the error envelope.
func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{
		"message": message,
		"status":  status,
	})
}

// ok writes a data envelope.
func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, map[string]any{
		"data":   data,
		"status": status,
	})
}

// okMsg writes a data envelope with a message.
func okMsg(c echo.Context, status int, message string, data any) error {
	body := map[string]any{
		"message": message,
		"status":  status,
	}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}
