package rest

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/abgdnv/gocart/internal/errors"
	"github.com/abgdnv/gocart/pkg/web"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors map to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrCartNotFound), errors.Is(err, apperrors.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrDuplicateProduct),
		errors.Is(err, apperrors.ErrProductNotInCart),
		errors.Is(err, apperrors.ErrOutOfStock),
		errors.Is(err, apperrors.ErrOptimisticLock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// domainMessage returns the message of the first known domain error in err's chain.
func domainMessage(err error) string {
	for _, known := range []error{
		apperrors.ErrCartNotFound,
		apperrors.ErrProductNotFound,
		apperrors.ErrEmptyTitle,
		apperrors.ErrDuplicateProduct,
		apperrors.ErrProductNotInCart,
		apperrors.ErrOutOfStock,
		apperrors.ErrOptimisticLock,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}

// respondServiceError logs err and writes the mapped status. Internal failures get fallback as message.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), fallback, "error", err)
		web.RespondError(w, logger, status, fallback)
		return
	}
	logger.WarnContext(r.Context(), "Request rejected", "status", status, "error", err)
	web.RespondError(w, logger, status, domainMessage(err))
}
