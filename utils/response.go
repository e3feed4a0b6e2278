package utils

import (
	"fmt"
	"net/http"
)

// ErrorType classifies HTTP error responses.
type ErrorType int

const (
	ErrorTypeNotFound ErrorType = iota
	ErrorTypeBadRequest
	ErrorTypeGatewayTimeout
	ErrorTypeInternalServer
)

type errorShape struct {
	status  int
	message string
}

var errorShapes = map[ErrorType]errorShape{
	ErrorTypeNotFound:       {http.StatusNotFound, "Resource not found"},
	ErrorTypeBadRequest:     {http.StatusBadRequest, "Bad request"},
	ErrorTypeGatewayTimeout: {http.StatusGatewayTimeout, "Upstream WHOIS server did not respond"},
	ErrorTypeInternalServer: {http.StatusInternalServerError, "Internal server error"},
}

// HandleHTTPError writes a JSON error envelope of the given type. An empty
// message falls back to the type's default.
func HandleHTTPError(w http.ResponseWriter, errorType ErrorType, message string) {
	shape, ok := errorShapes[errorType]
	if !ok {
		shape = errorShapes[ErrorTypeInternalServer]
	}
	if message == "" {
		message = shape.message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(shape.status)
	fmt.Fprintf(w, `{"error": %q}`, message)
}
