package common

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation failed")
)

// Account conflicts shared by the pre-checks in services and the
// unique-violation translation in repositories.
var (
	ErrUsernameTaken = Conflict("username already exists")
	ErrEmailTaken    = Conflict("email already in use")
	ErrPhoneTaken    = Conflict("phone already in use")
)

// PublicError carries a message that is safe to show to the client next to
// the sentinel that decides the HTTP status.
type PublicError struct {
	Kind error
	Msg  string
}

func (e *PublicError) Error() string { return e.Msg }

func (e *PublicError) Unwrap() error { return e.Kind }

func newPublic(kind error, msg string) error {
	return &PublicError{Kind: kind, Msg: msg}
}

func Validation(msg string) error   { return newPublic(ErrValidation, msg) }
func BadRequest(msg string) error   { return newPublic(ErrBadRequest, msg) }
func Unauthorized(msg string) error { return newPublic(ErrUnauthorized, msg) }
func Forbidden(msg string) error    { return newPublic(ErrForbidden, msg) }
func NotFound(msg string) error     { return newPublic(ErrNotFound, msg) }
func Conflict(msg string) error     { return newPublic(ErrConflict, msg) }

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text a client may see for err. Server-side
// failures collapse into a generic message.
func PublicMessage(err error) string {
	if HTTPStatusFromError(err) >= http.StatusInternalServerError {
		return ErrInternalServer.Error()
	}
	var pub *PublicError
	if errors.As(err, &pub) {
		return pub.Msg
	}
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrForbidden, ErrBadRequest, ErrValidation, ErrConflict} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
