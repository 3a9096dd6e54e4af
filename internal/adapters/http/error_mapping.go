package httpadapter

import (
	"net/http"
	"strings"

	"github.com/kirillkom/archivo-expedientes/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotAvailable):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrForbidden):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidState):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errorKinds = []error{
	domain.ErrNotFound,
	domain.ErrInvalidInput,
	domain.ErrInvalidState,
	domain.ErrConflict,
	domain.ErrForbidden,
	domain.ErrUnauthenticated,
	domain.ErrNotAvailable,
}

// publicMessage strips the operation and kind prefix from a domain error. Server errors never
// expose their text.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	if len(domain.FieldErrors(err)) > 0 {
		return "validation failed"
	}
	msg := err.Error()
	for _, kind := range errorKinds {
		if !domain.IsKind(err, kind) {
			continue
		}
		marker := kind.Error() + ": "
		if i := strings.LastIndex(msg, marker); i >= 0 {
			return msg[i+len(marker):]
		}
	}
	return msg
}
