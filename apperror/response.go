package apperror

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/starter-go/logging"
)

// maxBodyBytes bounds the size of a JSON request body.
const maxBodyBytes = 1 << 20

// WriteJSON serializes `data` to JSON and writes it to the `http.ResponseWriter` with the given `status`.
// A nil `data` writes only the status line and headers.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; all that is left is to record it.
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

// WriteError converts any error into a standardized response.
// Errors that are not *AppError become a generic InternalError. Server-side
// failures (5xx) are logged with their underlying cause through the request
// logger; the client only sees the public message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("an unexpected error occurred", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			zap.Int("status", status),
			zap.Error(appErr),
		)
	}

	WriteJSON(w, status, appErr.ToResponse())
}

// DecodeJSON decodes the request body into dst.
// An empty body decodes as an empty object, so a missing body surfaces as
// validation issues rather than a parse failure.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return NewBadRequestError("invalid request body", err)
	}
	return nil
}
