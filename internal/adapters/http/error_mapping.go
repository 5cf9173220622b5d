package httpadapter

import (
	"net/http"

	"github.com/kirillkom/docclass/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrExtraction),
		domain.IsKind(err, domain.ErrInsufficientText),
		domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrModelUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage hides internal error detail from clients; caller faults
// keep their message so the client can fix the request.
func publicErrorMessage(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrInsufficientText):
		return "Could not extract sufficient text from document"
	case domain.IsKind(err, domain.ErrExtraction), domain.IsKind(err, domain.ErrInvalidInput):
		return err.Error()
	case domain.IsKind(err, domain.ErrModelUnavailable):
		return "Classification model not available"
	case domain.IsKind(err, domain.ErrTemporary):
		return "Service temporarily unavailable"
	default:
		return "Classification failed"
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{
		"error":      publicErrorMessage(err),
		"error_kind": domain.ErrorKind(err),
	})
}
