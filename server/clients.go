package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tickbook/tickbook/internal/model"
)

type createClientRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"required,email,max=255"`
	ContactPerson string `json:"contact_person" validate:"required"`
}

type updateClientRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	ContactPerson string `json:"contact_person"`
}

func (s *Server) handleListClients(c echo.Context) error {
	clients, err := s.store.ListClients(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(c echo.Context) error {
	var req createClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	uid := userID(c)
	email := strings.ToLower(req.Email)

	taken, err := s.store.ClientEmailTaken(ctx, uid, email, 0)
	if err != nil {
		return respondError(c, err)
	}
	if taken {
		return fail(c, http.StatusUnprocessableEntity, "Client already exists for this user")
	}

	client := &model.Client{
		UserID:        uid,
		Name:          req.Name,
		Email:         email,
		ContactPerson: req.ContactPerson,
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusCreated, "Client created successfully", client)
}

func (s *Server) handleShowClient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Client not found")
	}
	client, err := s.store.GetClient(c.Request().Context(), id, userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, client)
}

// handleUpdateClient applies the supplied non-empty fields; everything
// else keeps its prior value.
func (s *Server) handleUpdateClient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Client not found")
	}

	var req updateClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	uid := userID(c)
	client, err := s.store.GetClient(ctx, id, uid)
	if err != nil {
		return respondError(c, err)
	}

	if req.Name != "" {
		client.Name = req.Name
	}
	if req.Email != "" {
		email := strings.ToLower(req.Email)
		taken, err := s.store.ClientEmailTaken(ctx, uid, email, id)
		if err != nil {
			return respondError(c, err)
		}
		if taken {
			return fail(c, http.StatusUnprocessableEntity, "Email already exists for another client of this user")
		}
		client.Email = email
	}
	if req.ContactPerson != "" {
		client.ContactPerson = req.ContactPerson
	}

	if err := s.store.UpdateClient(ctx, client); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusOK, "Client updated successfully", client)
}

// handleDeleteClient refuses to delete a client that still owns
// projects.
func (s *Server) handleDeleteClient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusNotFound, "Client not found")
	}

	ctx := c.Request().Context()
	uid := userID(c)
	client, err := s.store.GetClient(ctx, id, uid)
	if err != nil {
		return respondError(c, err)
	}

	count, err := s.store.CountClientProjects(ctx, client.ID)
	if err != nil {
		return respondError(c, err)
	}
	if count > 0 {
		return fail(c, http.StatusConflict, "Cannot delete client with projects. Please delete the projects first.")
	}

	if err := s.store.DeleteClient(ctx, id, uid); err != nil {
		return respondError(c, err)
	}
	return okMsg(c, http.StatusOK, "Client deleted successfully", nil)
}
