package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhay-kr-0705/GEN-X/internal/model"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Error("encode response", "error", err)
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Message: msg})
}

// respondError maps service errors to status codes. Unexpected errors are
// logged and answered with a generic message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var upload *model.UploadError
	switch {
	case errors.As(err, &upload):
		s.log.Error("upload failed", "path", r.URL.Path, "file", upload.FileName, "error", upload.Err)
		respondMessage(w, http.StatusInternalServerError, upload.Error())
	case errors.Is(err, model.ErrNotFound):
		respondMessage(w, http.StatusNotFound, publicMessage(err, model.ErrNotFound))
	case errors.Is(err, model.ErrBadRequest):
		respondMessage(w, http.StatusBadRequest, publicMessage(err, model.ErrBadRequest))
	case errors.Is(err, model.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, publicMessage(err, model.ErrUnauthorized))
	case errors.Is(err, model.ErrForbidden):
		respondMessage(w, http.StatusForbidden, publicMessage(err, model.ErrForbidden))
	case errors.Is(err, model.ErrConflict):
		respondMessage(w, http.StatusConflict, publicMessage(err, model.ErrConflict))
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// publicMessage drops the leading sentinel text from "bad request: reason"
// style errors and capitalizes the rest.
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		msg = rest
	}
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", model.ErrBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON body", model.ErrBadRequest)
	}
	return nil
}
