package handlers_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/handlers"
	"github.com/abrezinsky/bisadmin/internal/services"
	"github.com/abrezinsky/bisadmin/pkg/bis"
)

func TestAPIError_Error(t *testing.T) {
	err := handlers.NewAPIError(http.StatusBadRequest, "BAD_REQUEST", "test message")

	if err.Error() != "test message" {
		t.Errorf("expected 'test message', got %q", err.Error())
	}
	if err.Code != "BAD_REQUEST" {
		t.Errorf("expected code 'BAD_REQUEST', got %q", err.Code)
	}
}

func TestInternalError(t *testing.T) {
	err := handlers.InternalError(fmt.Errorf("db connection failed"))

	if err.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", err.Status)
	}
	// Internal errors should not expose the original message
	if err.Message != "Internal server error" {
		t.Errorf("expected generic message, got %q", err.Message)
	}
}

func TestToAPIError_ValidationError(t *testing.T) {
	err := &eventform.ValidationError{
		Fields:  eventform.FieldErrors{"name": "Toto pole je povinné."},
		Steps:   []string{"basicInfo"},
		Summary: "Formulář obsahuje chyby",
	}

	apiErr := handlers.ToAPIError(fmt.Errorf("submit: %w", err))

	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != handlers.ErrCodeValidation {
		t.Fatalf("expected 422 VALIDATION_ERROR, got %d %s", apiErr.Status, apiErr.Code)
	}
	if apiErr.Message != "Formulář obsahuje chyby" || apiErr.Fields["name"] == "" || apiErr.Steps[0] != "basicInfo" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestToAPIError_Backend(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "client error passes through with summary",
			err:        apperrors.Wrap(&bis.APIError{StatusCode: 400, Detail: "Neplatné datum"}, apperrors.ErrUnavailable, "Nepodařilo se uložit akci"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Nepodařilo se uložit akci: Neplatné datum",
		},
		{
			name:       "not found passes through",
			err:        &bis.APIError{StatusCode: 404, Detail: "Nenalezeno."},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Chyba BIS: Nenalezeno.",
		},
		{
			name:       "unauthorized becomes bad gateway",
			err:        &bis.APIError{StatusCode: 401, Detail: "Neplatný token."},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Chyba BIS: Neplatný token.",
		},
		{
			name:       "server error becomes bad gateway",
			err:        apperrors.Wrap(&bis.APIError{StatusCode: 500}, apperrors.ErrUnavailable, "Nepodařilo se smazat akci"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Nepodařilo se smazat akci",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handlers.ToAPIError(tt.err)
			if apiErr.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
			}
			if apiErr.Code != handlers.ErrCodeBackend {
				t.Errorf("expected BACKEND_ERROR, got %q", apiErr.Code)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, apiErr.Message)
			}
		})
	}
}

func TestToAPIError_StepError(t *testing.T) {
	err := apperrors.Wrap(
		&services.StepError{Step: "create questions", EventID: 12, Err: errors.New("timeout")},
		apperrors.ErrUnavailable, "Akce je uložena, ale nepodařilo se uložit dotazník")

	apiErr := handlers.ToAPIError(err)

	if apiErr.Status != http.StatusBadGateway || apiErr.Code != handlers.ErrCodeBackendUnavailable {
		t.Errorf("expected 502 BACKEND_UNAVAILABLE, got %d %s", apiErr.Status, apiErr.Code)
	}
	if apiErr.Step != "create questions" || apiErr.EventID != 12 {
		t.Errorf("expected failed step to be reported, got %+v", apiErr)
	}
}

func TestToAPIError_Kinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.NotFound("missing"), http.StatusNotFound, handlers.ErrCodeNotFound},
		{"invalid input", apperrors.InvalidInput("bad"), http.StatusBadRequest, handlers.ErrCodeValidation},
		{"conflict", apperrors.Conflict("closed"), http.StatusConflict, handlers.ErrCodeConflict},
		{"unavailable", apperrors.Unavailable("geocoder", errors.New("down")), http.StatusBadGateway, handlers.ErrCodeBackendUnavailable},
		{"internal", apperrors.Internal(errors.New("boom")), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
		{"not configured", services.ErrOnlineLocationNotConfigured, http.StatusConflict, handlers.ErrCodeNotConfigured},
		{"service error", services.ErrEmptyQuery, http.StatusBadRequest, handlers.ErrCodeBadRequest},
		{"invalid state", &services.InvalidStateError{State: "maybe"}, http.StatusBadRequest, handlers.ErrCodeValidation},
		{"shutting down", drafts.ErrWriterClosed, http.StatusServiceUnavailable, handlers.ErrCodeShuttingDown},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, handlers.ErrCodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := handlers.ToAPIError(tt.err)
			if apiErr.Status != tt.wantStatus || apiErr.Code != tt.wantCode {
				t.Errorf("expected %d %s, got %d %s", tt.wantStatus, tt.wantCode, apiErr.Status, apiErr.Code)
			}
		})
	}
}

func TestToAPIError_APIErrorPassthrough(t *testing.T) {
	orig := handlers.Conflict("already there")
	if got := handlers.ToAPIError(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("expected the same APIError, got %+v", got)
	}
}
