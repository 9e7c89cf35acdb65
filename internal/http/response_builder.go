// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON API
// responses with consistent headers and error payloads.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    interface{}
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v interface{}) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	w.WriteHeader(b.statusCode)
	if b.payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		slog.Error("Failed to encode JSON response", "component", "http", "error", err)
	}
}

// errorBody is the payload of every API error.
type errorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Balance *float64 `json:"balance,omitempty"`
}

// ErrorJSON creates a standard error response with a machine code and a
// user-facing message.
func ErrorJSON(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(errorBody{Error: code, Message: message})
}

// FailureJSON creates the error response for a service error.
func FailureJSON(err error) *JSONResponseBuilder {
	f := classify(err)
	return ErrorJSON(f.Status, f.Code, f.Message)
}

// BadRequestJSON creates a 400 Bad Request error response.
func BadRequestJSON(message string) *JSONResponseBuilder {
	return ErrorJSON(http.StatusBadRequest, "bad_request", message)
}
