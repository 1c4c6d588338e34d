package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/pkg/apperrors"
)

// genericErrorMessage is what clients see for anything unclassified;
// internal error text never leaks to the response.
const genericErrorMessage = "Unable to process request. Please try again or contact support if this continues."

// ErrorModel is the JSON error body emitted for every handled failure.
type ErrorModel struct {
	StatusCode   int    `json:"statusCode"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps an error kind to an HTTP status and emits the ErrorModel
// body. Unclassified errors are logged and normalized to a safe message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var status int
	message := err.Error()

	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidArgument, apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindUnauthorized:
		status = http.StatusUnauthorized
	default:
		status = http.StatusInternalServerError
		message = genericErrorMessage
		logger.Error("unhandled error", zap.Error(err))
	}

	writeJSON(w, status, ErrorModel{StatusCode: status, ErrorMessage: message})
}
