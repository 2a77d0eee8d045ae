package handler

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/core/ports"
	"github.com/eatwhat/eatwhat-api/internal/pkg/metrics"
)

type SessionHandler struct {
	sessions ports.SessionService
}

func NewSessionHandler(sessions ports.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create opens a new decision session for an initiator.
//
// @Summary      Create a session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body      createSessionRequest  true  "Initiating user"
// @Success      200   {object}  Envelope{data=domain.Session}
// @Failure      400   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Failure      503   {object}  Envelope
// @Router       /sessions [post]
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	username, err := actor(c, req.Username)
	if err != nil {
		return err
	}

	session, err := h.sessions.CreateSession(c.Request().Context(), username)
	if err != nil {
		return err
	}
	metrics.SessionsCreatedTotal.Inc()
	return okMsg(c, session, "Session created successfully")
}

// Get returns a session by its code.
//
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        code  path      string  true  "Session code"
// @Success      200   {object}  Envelope{data=domain.Session}
// @Failure      404   {object}  Envelope
// @Router       /sessions/{code} [get]
func (h *SessionHandler) Get(c echo.Context) error {
	session, err := h.sessions.GetSession(c.Request().Context(), sessionCode(c))
	if err != nil {
		return err
	}
	return ok(c, session)
}

// Lock closes a session to further submissions without picking.
//
// @Summary      Lock a session
// @Tags         sessions
// @Produce      json
// @Param        code  path      string  true  "Session code"
// @Success      200   {object}  Envelope{data=lockResponse}
// @Failure      404   {object}  Envelope
// @Failure      409   {object}  Envelope
// @Router       /sessions/{code}/lock [put]
func (h *SessionHandler) Lock(c echo.Context) error {
	session, err := h.sessions.LockSession(c.Request().Context(), sessionCode(c))
	if err != nil {
		return err
	}
	metrics.SessionsLockedTotal.WithLabelValues("manual").Inc()
	return ok(c, lockResponse{SessionCode: session.Code, Locked: session.IsLocked(), LockedAt: session.LockedAt})
}

// sessionCode reads the :code path parameter. Codes are stored uppercase.
func sessionCode(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("code")))
}
