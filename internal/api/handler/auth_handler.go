package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Token issues a bearer token for an existing directory user.
//
// @Summary      Issue a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      tokenRequest  true  "Username"
// @Success      200   {object}  Envelope{data=tokenResponse}
// @Failure      400   {object}  Envelope
// @Failure      404   {object}  Envelope
// @Router       /auth/token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.authService.IssueToken(c.Request().Context(), req.Username)
	if err != nil {
		return err
	}
	return ok(c, tokenResponse{Token: token, User: user})
}
