package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/vaultgate/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeJSONAs(w, status, "application/json; charset=utf-8", v)
}

func writeJSONAs(w http.ResponseWriter, status int, contentType string, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// CannedResponse is the body of every error response.
type CannedResponse struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}

// buildResponse derives the HTTP status and body for a failure. Either
// status or code must be non-zero; message is appended to the fixed text.
func buildResponse(status int, message string, code apperr.Code) (int, CannedResponse) {
	head := http.StatusText(status)
	if code != 0 {
		head = code.Message()
	}
	var parts []string
	for _, p := range []string{head, message} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	resp := CannedResponse{Message: strings.Join(parts, " "), ErrorCode: int(code)}
	if code == 0 {
		resp.ErrorCode = status * 100
	}
	if status == 0 {
		status = code.Status()
	}
	return status, resp
}

func writeCanned(w http.ResponseWriter, status int, code apperr.Code, message string) {
	status, body := buildResponse(status, message, code)
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// writeError renders err as a canned response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		if appErr.Code != 0 {
			writeCanned(w, 0, appErr.Code, appErr.Detail)
			return
		}
		writeCanned(w, appErr.Status, 0, appErr.Detail)
	case errors.Is(err, apperr.ErrNotFound):
		writeCanned(w, http.StatusNotFound, 0, "")
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeCanned(w, http.StatusConflict, 0, "")
	case errors.Is(err, apperr.ErrIsDirectory):
		writeCanned(w, 0, apperr.RequestMethodValidOnlyForFiles, "")
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeCanned(w, http.StatusInternalServerError, 0, err.Error())
	}
}
