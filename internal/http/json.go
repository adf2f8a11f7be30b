// Package httpx exposes the trendscout HTTP API.
package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/target/trendscout/internal/errors"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// envelope is the response shape shared by every API endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, Message: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteSuccess writes a 200 envelope carrying data.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	Message string
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, envelope{Success: false, Message: p.Message})
}

// WriteAppError writes a failure envelope whose status follows the error's code.
// Errors without a recognized code are written as 500 with the fallback message.
func WriteAppError(w http.ResponseWriter, err error, fallback string) {
	code := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		code = http.StatusNotFound
	case apperrors.IsConflict(err):
		code = http.StatusConflict
	case apperrors.IsValidation(err), apperrors.GetCode(err) == apperrors.ErrCodeForeignKey:
		code = http.StatusBadRequest
	case apperrors.IsTimeout(err):
		code = http.StatusGatewayTimeout
	}
	if code == http.StatusInternalServerError {
		WriteError(w, ErrorParams{Code: code, Message: fallback})
		return
	}
	var appErr *apperrors.AppError
	errors.As(err, &appErr)
	WriteError(w, ErrorParams{Code: code, Message: appErr.Message})
}
