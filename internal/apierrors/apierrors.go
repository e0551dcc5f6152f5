// Package apierrors contains the error types returned by services and rendered
// by the HTTP handlers.
package apierrors

import "net/http"

// ValidationError represents an invalid field on a request payload.
type ValidationError struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// NewValidationError creates a new ValidationError for the given field.
func NewValidationError(field string, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail}
}

func (v ValidationError) Error() string {
	return v.Field + " " + v.Detail
}

// APIError represents an error that carries the HTTP status code it should be
// rendered with.
type APIError struct {
	Detail         string `json:"detail,omitempty"`
	httpStatusCode int
}

// APIErrorOption determines the Functional Options used to create a new APIError.
type APIErrorOption func(apiError *APIError)

// WithDetail sets the error detail message.
func WithDetail(detail string) APIErrorOption {
	return func(apiError *APIError) {
		apiError.Detail = detail
	}
}

// WithHTTPStatusCode sets the HTTP status code the error should be rendered with.
func WithHTTPStatusCode(statusCode int) APIErrorOption {
	return func(apiError *APIError) {
		apiError.httpStatusCode = statusCode
	}
}

// NewAPIError creates a new APIError using the given options.
func NewAPIError(opts ...APIErrorOption) *APIError {
	apiError := &APIError{httpStatusCode: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(apiError)
	}
	return apiError
}

// HTTPStatusCode gets the HTTP status code associated to the error.
func (a APIError) HTTPStatusCode() int {
	return a.httpStatusCode
}

func (a APIError) Error() string {
	return a.Detail
}
