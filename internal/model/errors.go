package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy. Every *RemoteError matches ErrRemoteService plus at most
// one of the narrower kinds.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuth          = errors.New("authentication failed")
	ErrRateLimit     = errors.New("rate limit exceeded")
	ErrNotFound      = errors.New("not found")
	ErrRemoteService = errors.New("remote service error")

	// ErrNoSession is returned by current-user lookups when nobody is signed in.
	ErrNoSession = errors.New("no active session")

	// ErrMissingFields is a required form field left empty. It matches ErrValidation.
	ErrMissingFields = &ValidationError{Message: "all fields are required"}
)

// Platform error types, as carried in the "type" field of error bodies.
const (
	TypeGeneralUnknown        = "general_unknown"
	TypeArgumentInvalid       = "general_argument_invalid"
	TypeRateLimitExceeded     = "general_rate_limit_exceeded"
	TypeUnauthorizedScope     = "general_unauthorized_scope"
	TypeRouteNotFound         = "general_route_not_found"
	TypeInvalidCredentials    = "user_invalid_credentials"
	TypeUserAlreadyExists     = "user_already_exists"
	TypeUserNotFound          = "user_not_found"
	TypeSessionNotFound       = "user_session_not_found"
	TypeSessionAlreadyExists  = "user_session_already_exists"
	TypeDocumentNotFound      = "document_not_found"
	TypeDocumentAlreadyExists = "document_already_exists"
	TypeFileNotFound          = "storage_file_not_found"
	TypeFileEmpty             = "storage_file_empty"
)

// Provider messages the app recognises verbatim.
const (
	MsgRateLimit          = "Rate limit for the current endpoint has been exceeded. Please try again after some time."
	MsgInvalidEmail       = "Invalid `email` param: Value must be a valid email address"
	MsgInvalidCredentials = "Invalid credentials. Please check the email and password."
	MsgInvalidPassword    = "Invalid `password` param: Password must be between 8 and 265 characters long, and should not be one of the commonly used password."
)

// RemoteError is a rejected platform call. Code is the HTTP status (0 when
// the request never got a response) and Err the transport cause, if any.
type RemoteError struct {
	Op      string
	Code    int
	Type    string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match a RemoteError against the taxonomy sentinels.
func (e *RemoteError) Is(target error) bool {
	if target == ErrRemoteService {
		return true
	}
	kind := e.Kind()
	return kind != ErrRemoteService && target == kind
}

// Kind classifies the error into the taxonomy.
func (e *RemoteError) Kind() error {
	switch {
	case e.Code == http.StatusTooManyRequests || e.Type == TypeRateLimitExceeded:
		return ErrRateLimit
	case e.Type == TypeInvalidCredentials || e.Code == http.StatusUnauthorized:
		return ErrAuth
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code == http.StatusBadRequest:
		return ErrValidation
	default:
		return ErrRemoteService
	}
}

// ValidationError is a local input check that failed before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ProviderMessage returns the platform's message for a remote failure, or the
// plain error text otherwise.
func ProviderMessage(err error) string {
	if err == nil {
		return ""
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	return err.Error()
}
