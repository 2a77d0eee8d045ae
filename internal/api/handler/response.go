package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every response body, successful or not.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func ok(c echo.Context, data any) error {
	return respond(c, http.StatusOK, data, "")
}

func okMsg(c echo.Context, data any, message string) error {
	return respond(c, http.StatusOK, data, message)
}

func created(c echo.Context, data any, message string) error {
	return respond(c, http.StatusCreated, data, message)
}

func respond(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message, Code: status})
}

// Fail writes an error envelope. The central error handler is its only caller
// outside this package.
func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message, Code: status})
}
