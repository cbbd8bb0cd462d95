package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeBackend            = "BACKEND_ERROR"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeNotConfigured      = "NOT_CONFIGURED"
	ErrCodeShuttingDown       = "SHUTTING_DOWN"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Steps   []string          `json:"steps,omitempty"`
	Step    string            `json:"step,omitempty"`
	EventID int               `json:"event_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrBadRequest     = &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrNotFound       = &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: "Not found"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

// InternalError creates a 500 error. The cause is logged by respondError.
func InternalError(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondSuccess writes a 200 OK with a message
func respondSuccess(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondDeleted writes a 204 No Content response
func respondDeleted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError writes an error response. Server side failures are logged.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := ToAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", apiErr.Status, "error", err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes JSON from request body into the target
func decodeJSON(r *http.Request, target interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// parseIntParam extracts and parses an integer URL parameter
func parseIntParam(r *http.Request, name string) (int, error) {
	param := chi.URLParam(r, name)
	if param == "" {
		return 0, BadRequest("Missing " + name + " parameter")
	}
	id, err := strconv.Atoi(param)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " parameter")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, BadRequest("Invalid " + name + " query parameter")
	}
	return n, nil
}

// queryInts reads a comma separated list of integers
func queryInts(r *http.Request, name string) ([]int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, BadRequest("Invalid " + name + " query parameter")
		}
		out = append(out, n)
	}
	return out, nil
}

// backendError maps a BIS failure. Client errors pass through except 401,
// which would read as an expired admin session; everything else is 502.
func backendError(summary string, bisErr *bis.APIError) *APIError {
	status := http.StatusBadGateway
	if bisErr.StatusCode >= 400 && bisErr.StatusCode < 500 && bisErr.StatusCode != http.StatusUnauthorized {
		status = bisErr.StatusCode
	}
	message := summary
	if bisErr.Detail != "" {
		message = summary + ": " + bisErr.Detail
	}
	return &APIError{Status: status, Code: ErrCodeBackend, Message: message}
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var valErr *eventform.ValidationError
	if stderrors.As(err, &valErr) {
		return &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    ErrCodeValidation,
			Message: valErr.Summary,
			Fields:  valErr.Fields,
			Steps:   valErr.Steps,
		}
	}

	out := classify(err)
	var stepErr *services.StepError
	if stderrors.As(err, &stepErr) {
		out.Step = stepErr.Step
		out.EventID = stepErr.EventID
	}
	return out
}

func classify(err error) *APIError {
	var appErr *errors.Error
	hasAppErr := stderrors.As(err, &appErr)

	var bisErr *bis.APIError
	if stderrors.As(err, &bisErr) {
		summary := "Chyba BIS"
		if hasAppErr {
			summary = appErr.Message
		}
		return backendError(summary, bisErr)
	}

	if hasAppErr {
		switch appErr.Kind {
		case errors.ErrNotFound:
			return NotFound(appErr.Message)
		case errors.ErrValidation, errors.ErrInvalidInput:
			return &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: appErr.Message}
		case errors.ErrConflict:
			return Conflict(appErr.Message)
		case errors.ErrUnavailable:
			return &APIError{Status: http.StatusBadGateway, Code: ErrCodeBackendUnavailable, Message: appErr.Error()}
		default:
			return InternalError(err)
		}
	}

	if stderrors.Is(err, drafts.ErrWriterClosed) {
		return &APIError{Status: http.StatusServiceUnavailable, Code: ErrCodeShuttingDown, Message: err.Error()}
	}

	var svcErr *services.ServiceError
	if stderrors.As(err, &svcErr) {
		if svcErr == services.ErrOnlineLocationNotConfigured || svcErr == services.ErrPublicWebURLNotConfigured ||
			svcErr == services.ErrNotLoggedIn {
			return &APIError{Status: http.StatusConflict, Code: ErrCodeNotConfigured, Message: svcErr.Message}
		}
		return BadRequest(svcErr.Message)
	}
	var stateErr *services.InvalidStateError
	if stderrors.As(err, &stateErr) {
		return &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation, Message: stateErr.Error()}
	}

	return InternalError(err)
}
