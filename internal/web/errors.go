package web

// errors.go maps handler errors to responses.
//
// Every error is logged with the request ID, then rendered as:
//   - an HTML fragment for HTMX requests
//   - JSON for everything else
//
// The status code comes from statusFor, the user-facing text from core.MapError.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/stockstage/internal/core"
	"github.com/JonMunkholm/stockstage/internal/logging"
)

// errBadRequest marks request-shape problems (bad form, bad JSON, bad index).
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrUnknownIndex):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRecordLocked), errors.Is(err, core.ErrBatchLocked):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, core.ErrSubmissionUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage maps err for display. Request-shape errors echo their detail.
func userMessage(err error) core.UserMessage {
	if errors.Is(err, errBadRequest) {
		return core.UserMessage{
			Message: err.Error(),
			Action:  "Check the request and try again",
			Code:    "REQ001",
		}
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return core.MapError(core.ErrFileTooLarge)
	}
	return core.MapError(err)
}

// respondError logs err and writes the mapped response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "5")
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := errorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
			slog.Error("render error fragment", "error", err)
		}
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v with status. Encoding errors are only logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
