// Package respond writes the JSON envelope shared by every endpoint:
// {status, status_code, message, ...}. Status is true only for 2xx replies.
package respond

import "github.com/labstack/echo/v4"

// Envelope is the standard response body. Error carries a machine-readable
// code on failures (clients use it to tell an expired token from an invalid
// one); Results carries endpoint-specific payloads.
type Envelope struct {
	Status     bool   `json:"status"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	Results    any    `json:"results,omitempty"`
}

// Message writes an envelope with no payload.
func Message(c echo.Context, code int, message string) error {
	return c.JSON(code, Envelope{Status: ok(code), StatusCode: code, Message: message})
}

// Results writes an envelope carrying a payload.
func Results(c echo.Context, code int, message string, results any) error {
	return c.JSON(code, Envelope{Status: ok(code), StatusCode: code, Message: message, Results: results})
}

// Error writes a failure envelope with a machine-readable error code.
func Error(c echo.Context, code int, errCode, message string) error {
	return c.JSON(code, Envelope{Status: false, StatusCode: code, Message: message, Error: errCode})
}

func ok(code int) bool { return code == 200 || code == 201 }
