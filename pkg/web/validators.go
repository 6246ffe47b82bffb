package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// ValidateStruct runs struct validation and writes a 400 response listing the failed rules per field.
// Returns false when the response has been written.
func ValidateStruct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
		return false
	}
	logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
	return false
}

// ParseBoolQuery reads an optional boolean query parameter. A missing parameter yields false.
// An unparsable value writes a 400 response and returns ok=false.
func ParseBoolQuery(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (value bool, ok bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s value: %s", key, raw))
		return false, false
	}
	return value, true
}
