// Package apierr is the closed error taxonomy the service layer maps to
// HTTP status codes. Sentinel errors are wrapped with detail via
// github.com/pkg/errors so errors.Cause still recovers the sentinel at the
// HTTP edge.
package apierr

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrNotFound                       = errors.New("not found")
	ErrInvalidSignature               = errors.New("invalid signature")
	ErrDBError                        = errors.New("database error")
	ErrInvalidPublicKey               = errors.New("invalid public key")
	ErrInternal                       = errors.New("internal error")
	ErrInvalidOperationRequest        = errors.New("invalid operation request")
	ErrInvalidValue                   = errors.New("invalid value")
	ErrInvalidOperationState          = errors.New("invalid operation state")
	ErrUnauthorized                   = errors.New("unauthorized")
	ErrForbidden                      = errors.New("forbidden")
	ErrAuthenticationChallengeExpired = errors.New("authentication challenge expired")
	ErrUnknown                        = errors.New("unknown error")
)

// Wrap attaches detail to a sentinel error, preserving it as the Cause.
func Wrap(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}

// StatusCode implements the HTTP mapping table from the error taxonomy:
// NotFound -> 404; the *Invalid* and AuthenticationChallengeExpired family
// -> 400; Unauthorized/Forbidden -> 403; everything else -> 500.
func StatusCode(err error) int {
	switch errors.Cause(err) {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalidSignature, ErrInvalidValue, ErrInvalidOperationRequest,
		ErrInvalidOperationState, ErrAuthenticationChallengeExpired, ErrInvalidPublicKey:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrForbidden:
		return http.StatusForbidden
	case ErrDBError, ErrInternal, ErrUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
