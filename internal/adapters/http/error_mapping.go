package httpadapter

import (
	"net/http"

	"github.com/kirillkom/safety-qa/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrRebuildInProgress):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrIndexNotBuilt):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbeddingFailure):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
