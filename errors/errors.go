package errors

import (
	"errors"
	"net/http"
)

const (
	NoTokenError          = "Unauthorized: No token provided"
	InvalidTokenError     = "Forbidden: Invalid token"
	InvalidCredentials    = "Invalid email or password"
	EmailAlreadyExist     = "Email already exists"
	UsernameExist         = "Username already exists"
	ListingNotFound       = "Listing not found"
	UserNotFound          = "User not found"
	NotYourListing        = "You can only update your own listings"
	NotYourAccount        = "You can only update your own account"
	InvalidListingID      = "Invalid listing ID"
	InvalidUserID         = "Invalid user ID"
	TooManyImages         = "A listing can carry at most 6 images"
	DatabaseError         = "Internal server error"
	IdentityProviderError = "Identity provider unavailable"
)

// StatusError carries the HTTP status an error should surface as.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func NewValidation(message string) *StatusError {
	return &StatusError{Code: http.StatusBadRequest, Message: message}
}

func NewUnauthorized(message string) *StatusError {
	return &StatusError{Code: http.StatusUnauthorized, Message: message}
}

func NewForbidden(message string) *StatusError {
	return &StatusError{Code: http.StatusForbidden, Message: message}
}

func NewNotFound(message string) *StatusError {
	return &StatusError{Code: http.StatusNotFound, Message: message}
}

func NewConflict(message string) *StatusError {
	return &StatusError{Code: http.StatusConflict, Message: message}
}

func NewInternal(message string) *StatusError {
	return &StatusError{Code: http.StatusInternalServerError, Message: message}
}

// StatusOf maps any error to the HTTP status it should be reported with.
// Errors without an explicit status are internal failures.
func StatusOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return http.StatusInternalServerError
}
