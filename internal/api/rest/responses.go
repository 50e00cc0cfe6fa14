package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	domainErrors "github.com/auditgate/expense-fraud-engine/internal/domain/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("writing response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP statuses; anything unrecognized
// becomes an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := "INTERNAL_ERROR"
	message := "An internal error occurred"

	var appErr *domainErrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	h.writeJSON(w, domainErrors.GetStatusCode(err), errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}
