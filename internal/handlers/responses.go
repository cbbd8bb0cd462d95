package handlers

// SessionResponse reports the admin session state
type SessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ValidateResponse is returned when a wizard submission passes validation
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// RegistrationLinkResponse carries the public sign-up link of an event
type RegistrationLinkResponse struct {
	URL string `json:"url"`
}
