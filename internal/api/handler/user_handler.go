package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	"github.com/eatwhat/eatwhat-api/internal/pkg/metrics"
)

// RecordReader parses an uploaded import file.
type RecordReader func(r io.Reader) ([]ports.UserRecord, error)

type UserHandler struct {
	users    ports.UserService
	importer ports.UserImporter
	read     RecordReader
}

func NewUserHandler(users ports.UserService, importer ports.UserImporter, read RecordReader) *UserHandler {
	return &UserHandler{users: users, importer: importer, read: read}
}

// List returns every user in the directory.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {object}  Envelope{data=[]domain.User}
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, users)
}

// Create adds a user to the directory.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  Envelope{data=domain.User}
// @Failure      400   {object}  Envelope
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return created(c, user, "User created successfully")
}

// Validate tells the client whether username exists and may start sessions.
//
// @Summary      Validate a user
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  Envelope{data=userValidationResponse}
// @Router       /users/validate/{username} [get]
func (h *UserHandler) Validate(c echo.Context) error {
	v, err := h.users.ValidateUser(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return ok(c, userValidationResponse{
		Username:           v.Username,
		Exists:             v.Exists,
		CanInitiateSession: v.CanInitiateSession,
	})
}

// Exists reports whether username is in the directory.
//
// @Summary      Check a username
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  Envelope{data=userExistsResponse}
// @Router       /users/exists/{username} [get]
func (h *UserHandler) Exists(c echo.Context) error {
	username := c.Param("username")
	exists, err := h.users.UserExists(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return ok(c, userExistsResponse{Username: username, Exists: exists})
}

// Import bulk-loads users from a username,email,role CSV body.
//
// @Summary      Import users
// @Tags         users
// @Accept       text/csv
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Envelope{data=ports.ImportResult}
// @Failure      400  {object}  Envelope
// @Failure      401  {object}  Envelope
// @Failure      403  {object}  Envelope
// @Router       /users/import [post]
func (h *UserHandler) Import(c echo.Context) error {
	records, err := h.read(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid import file: "+err.Error())
	}

	result, err := h.importer.Import(c.Request().Context(), records)
	if result != nil {
		metrics.UsersImportedTotal.WithLabelValues("imported").Add(float64(result.Imported))
		metrics.UsersImportedTotal.WithLabelValues("skipped").Add(float64(result.Skipped))
	}
	if err != nil {
		return err
	}
	return ok(c, result)
}
