// Package apperr defines the error kinds shared by the service layer and
// the HTTP handlers.
package apperr

import "errors"

// Error kinds. Every error returned by a service matches exactly one of
// these with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrIncompletePayload = errors.New("incomplete credential payload")
	ErrUploadFailed      = errors.New("upload failed")
	ErrInternal          = errors.New("internal error")
)

var kinds = []error{
	ErrValidation,
	ErrUnauthenticated,
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrInvalidCredential,
	ErrIncompletePayload,
	ErrUploadFailed,
	ErrInternal,
}

// Error is a kinded error carrying a user-facing message and an optional cause.
// The cause is never shown to callers.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// New returns an error of the given kind with a user-facing message.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an error of the given kind that also wraps cause.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// KindOf returns the kind of err. Unknown errors are ErrInternal.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// MessageOf returns the user-facing message for err.
// Errors without one get the text of their kind.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != ErrInternal {
		return e.Message
	}
	kind := KindOf(err)
	if kind == ErrInternal {
		return "Something went wrong"
	}
	return kind.Error()
}
