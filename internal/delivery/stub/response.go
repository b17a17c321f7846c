package stub

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope is the wire shape every stub endpoint answers with. It mirrors
// what the production admin API sends so the client cannot tell them apart.
type envelope struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

func respondSuccess(c echo.Context, statusCode int, data any, message string) error {
	if message == "" {
		message = "Success"
	}

	return c.JSON(statusCode, envelope{
		Success: true,
		Code:    statusCode,
		Message: message,
		Data:    data,
	})
}

func respondError(c echo.Context, statusCode int, errorCode, message string) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, envelope{
		Success: false,
		Code:    statusCode,
		Message: message,
		Error: &errorInfo{
			Code: errorCode,
		},
	})
}
