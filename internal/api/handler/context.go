package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eatwhat/eatwhat-api/internal/api/middleware"
)

// actor resolves who is acting on a request. Without a bearer token the
// claimed username is trusted as-is. With one, the token identity wins and a
// differing claimed username is rejected with 403.
func actor(c echo.Context, claimed string) (string, error) {
	claimed = strings.TrimSpace(claimed)
	tokenUser, _ := c.Get(middleware.UsernameKey).(string)
	if tokenUser == "" {
		return claimed, nil
	}
	if claimed != "" && claimed != tokenUser {
		return "", echo.NewHTTPError(http.StatusForbidden, "username does not match the authenticated user")
	}
	return tokenUser, nil
}
