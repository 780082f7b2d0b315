package api

import "fmt"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Messages returned to clients outside the authentication path.
const (
	MsgCustomerNotFound    = "Customer not found"
	MsgClientPairRequired  = "clientId and clientSecret required"
	MsgInvalidClient       = "Invalid client credentials"
	MsgInvalidJSON         = "Invalid JSON body"
	MsgInternalServerError = "Internal server error"
	MsgConflict            = "Record already exists"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NewRequiredFieldError creates a ValidationError for a missing field.
func NewRequiredFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}
