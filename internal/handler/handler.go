// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/planbook/planbook/internal/handler/dto"
	"github.com/planbook/planbook/internal/model"
	"github.com/planbook/planbook/internal/service"
	"github.com/planbook/planbook/internal/validation"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Handler serves the routes that belong to no resource.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Index describes the service.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "planbook",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Status:  "error",
		Type:    errType,
		Message: message,
	})
}

// writeServiceError maps service errors to HTTP responses. Only messages
// built for clients are echoed; unexpected errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	message := clientMessage(err)

	switch {
	case errors.Is(err, service.ErrWeakCredential):
		writeError(w, http.StatusBadRequest, "weak_credential", message)
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", message)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "authentication", message)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", message)
	case errors.Is(err, service.ErrDuplicateEntity):
		writeError(w, http.StatusConflict, "duplicate", message)
	case errors.Is(err, service.ErrPersistence):
		logger.Error("persistence_error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "persistence", message)
	default:
		logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "unexpected", "an unexpected error occurred")
	}
}

func clientMessage(err error) string {
	var se *service.Error
	if errors.As(err, &se) {
		return se.Message
	}
	var ve *validation.Error
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return "an unexpected error occurred"
}

// errBadRequest marks request-shape problems found before the service runs.
type errBadRequest struct {
	status  int
	errType string
	message string
}

func (e *errBadRequest) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &errBadRequest{
		status:  http.StatusBadRequest,
		errType: "invalid_input",
		message: fmt.Sprintf(format, args...),
	}
}

// writeRequestError writes the response for a decode or query error.
func writeRequestError(w http.ResponseWriter, err error) {
	var br *errBadRequest
	if errors.As(err, &br) {
		writeError(w, br.status, br.errType, br.message)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &tooLarge):
			return &errBadRequest{
				status:  http.StatusRequestEntityTooLarge,
				errType: "payload_too_large",
				message: "request body too large",
			}
		case errors.Is(err, io.EOF):
			return badRequest("request body is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("request body is not valid JSON")
		case errors.As(err, &typeErr):
			return badRequest("field %q has the wrong type", typeErr.Field)
		default:
			return badRequest("invalid request body: %s", err.Error())
		}
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// queryInt reads an integer query parameter, returning def when absent.
func queryInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", key)
	}
	return n, nil
}

// queryTime reads an optional timestamp query parameter.
func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := dto.ParseTime(raw)
	if err != nil {
		return nil, badRequest("%s: %s", key, err.Error())
	}
	return &t, nil
}

// queryPage reads page and per_page. Out-of-range values are clamped by
// the service.
func queryPage(q url.Values) (model.Page, error) {
	number, err := queryInt(q, "page", 1)
	if err != nil {
		return model.Page{}, err
	}
	perPage, err := queryInt(q, "per_page", service.DefaultPerPage)
	if err != nil {
		return model.Page{}, err
	}
	return model.Page{Number: number, PerPage: perPage}, nil
}

// queryCategories reads a category filter. Repeated parameters and comma
// separated values are both accepted.
func queryCategories(q url.Values) []string {
	var out []string
	for _, raw := range q["category"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}
