package web

// errors.go translates pipeline errors into the response categories the
// API exposes. Row-level validation errors are data, not errors — they
// travel inside a successful summary. Decode-fatal and persistence-fatal
// conditions surface here: decode failures are the client's problem
// ("your file is structurally broken"), persistence failures are ours and
// reach the client only as an opaque internal error while the full detail
// is logged with the request ID.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/proplist/importer/internal/importer"
	"github.com/proplist/importer/internal/logging"
)

// respondError writes a JSON failure response with the given message.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, importResponse{
		Success: false,
		Message: message,
	})
}

// respondImportError maps a coordinator error to a response category.
func (s *Server) respondImportError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context())

	var noValid *importer.NoValidRecordsError
	var decodeErr *importer.DecodeError
	var gatewayErr *importer.GatewayError
	var badType *unsupportedTypeError

	switch {
	case errors.Is(err, importer.ErrEmptyFile):
		respondError(w, r, http.StatusBadRequest, "Empty CSV file provided")

	case errors.As(err, &badType):
		respondError(w, r, http.StatusUnsupportedMediaType, badType.Error())

	case errors.As(err, &noValid):
		// The error report still reaches the caller so bad rows can be
		// corrected and resubmitted.
		writeJSON(w, http.StatusUnprocessableEntity, importResponse{
			Success:          false,
			Message:          noValid.Error(),
			Summary:          toSummaryPayload(noValid.Summary),
			ValidationErrors: noValid.Summary.ValidationErrors,
		})

	case errors.As(err, &decodeErr):
		logger.Warn("import rejected: malformed file", "error", decodeErr.Err.Error())
		respondError(w, r, http.StatusBadRequest, decodeErr.Error())

	case errors.As(err, &gatewayErr):
		logger.Error("import failed: persistence error",
			"batch", gatewayErr.Batch,
			"error", gatewayErr.Err.Error(),
		)
		respondError(w, r, http.StatusInternalServerError, "internal error while storing records")

	case errors.Is(err, importer.ErrTooManyImports):
		w.Header().Set("Retry-After", "10")
		respondError(w, r, http.StatusTooManyRequests, err.Error())

	default:
		logger.Error("import failed", "error", err.Error())
		respondError(w, r, http.StatusInternalServerError, "internal error during import")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left to do but log.
		slog.Error("json encode error", "error", err.Error())
	}
}
