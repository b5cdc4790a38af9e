package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the envelope of every API response: a payload on success, an error message otherwise
type Response struct {
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Payload sends a successful response
func Payload(c echo.Context, code int, payload interface{}) error {
	return c.JSON(code, Response{Payload: payload})
}

// Error sends an error response
func Error(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{Error: message})
}

// OK sends a 200 OK response
func OK(c echo.Context, payload interface{}) error {
	return Payload(c, http.StatusOK, payload)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return Error(c, http.StatusBadRequest, message)
}

// BadGateway sends a 502 Bad Gateway response, used when the upstream registry fails
func BadGateway(c echo.Context, message string) error {
	return Error(c, http.StatusBadGateway, message)
}

// GatewayTimeout sends a 504 Gateway Timeout response
func GatewayTimeout(c echo.Context, message string) error {
	return Error(c, http.StatusGatewayTimeout, message)
}

// InternalServerError sends a 500 Internal Server Error response
func InternalServerError(c echo.Context, message string) error {
	return Error(c, http.StatusInternalServerError, message)
}
