package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const userIDKey = "user_id"

// authMiddleware resolves the Bearer token to an authenticated user id.
// Handlers below it only ever see the user id.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return fail(c, http.StatusUnauthorized, "Authentication required.")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return fail(c, http.StatusUnauthorized, "Invalid authorization header.")
		}

		session, err := s.store.GetSessionByToken(c.Request().Context(), token)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Invalid session token.")
		}
		if time.Now().After(session.ExpiresAt) {
			return fail(c, http.StatusUnauthorized, "Session expired.")
		}

		c.Set(userIDKey, session.UserID)
		return next(c)
	}
}

// userID returns the authenticated user id set by authMiddleware.
func userID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}
