package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UserID    int64  `json:"user_id"`
}

// handleRegister creates an account and an initial session.
func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	email := strings.ToLower(req.Email)

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return fail(c, http.StatusUnprocessableEntity, "Email already registered.")
	} else if !errors.Is(err, store.ErrNotFound) {
		return respondError(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, err)
	}

	user := &model.User{Name: req.Name, Email: email, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return respondError(c, err)
	}

	session, err := s.createSession(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	s.log.Info().Str("email", user.Email).Msg("user registered")
	return okMsg(c, http.StatusCreated, "User registered successfully.", authResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		UserID:    user.ID,
	})
}

// handleLogin exchanges credentials for a session token.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid credentials.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid credentials.")
	}

	session, err := s.createSession(c, user.ID)
	if err != nil {
		return respondError(c, err)
	}

	s.log.Info().Str("email", user.Email).Msg("user logged in")
	return ok(c, http.StatusOK, authResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		UserID:    user.ID,
	})
}

// handleLogout invalidates the presented session token.
func (s *Server) handleLogout(c echo.Context) error {
	auth := c.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if err := s.store.DeleteSession(c.Request().Context(), token); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusOK, "Logged out successfully.", nil)
}

// handleMe returns the authenticated user.
func (s *Server) handleMe(c echo.Context) error {
	user, err := s.store.GetUserByID(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, user)
}

// createSession issues a random 30-day bearer token.
func (s *Server) createSession(c echo.Context, uid int64) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:    uid,
		Token:     hex.EncodeToString(tokenBytes),
		ExpiresAt: time.Now().UTC().Add(30 * 24 * time.Hour).Truncate(time.Second),
	}
	if err := s.store.CreateSession(c.Request().Context(), session); err != nil {
		return nil, err
	}
	return session, nil
}
