package handlers

import (
	"github.com/abrezinsky/bisadmin/internal/drafts"
)

// LoginRequest is the admin login body
type LoginRequest struct {
	Password string `json:"password"`
}

// EventSubmitRequest carries every step of the event wizard
type EventSubmitRequest struct {
	FormID string                   `json:"form_id"`
	Steps  map[string]drafts.Values `json:"steps"`
}

// ApplicationStateRequest changes the state of an application
type ApplicationStateRequest struct {
	State string `json:"state"`
}

// BISLoginRequest logs the admin into the BIS backend
type BISLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
