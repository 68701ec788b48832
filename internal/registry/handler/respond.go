package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	dErrors "proofvault/pkg/domain-errors"
	"proofvault/pkg/requestcontext"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError translates domain errors into the JSON error envelope. Anything
// without a registry code answers 500 without leaking its message.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)

	body := errorResponse{Error: string(code)}
	var regErr *dErrors.RegistryError
	if errors.As(err, &regErr) {
		body.Message = regErr.Message
	}

	if code == dErrors.CodeInternal || dErrors.Is(err, dErrors.CodeTimeout) {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		body.Message = ""
	}
	h.metrics.RecordFailure(string(code))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "response encoding failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}
