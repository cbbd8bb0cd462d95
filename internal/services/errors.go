package services

import "fmt"

// Service errors
var (
	ErrOnlineLocationNotConfigured = &ServiceError{Message: "online location is not configured; set it in the settings"}
	ErrPublicWebURLNotConfigured   = &ServiceError{Message: "public web URL is not configured; set it in the settings"}
	ErrNotLoggedIn                 = &ServiceError{Message: "no BIS token is configured; log in first"}
	ErrEmptyQuery                  = &ServiceError{Message: "search query is empty"}
	ErrInvalidQRSize               = &ServiceError{Message: "size must be between 64 and 1024"}
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// InvalidStateError is returned for an unknown application state
type InvalidStateError struct {
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid application state: %s", e.State)
}

// StepError names which call of a multi-call save failed. Calls before
// it took effect and are not rolled back.
type StepError struct {
	Step    string
	EventID int
	Err     error
}

func (e *StepError) Error() string {
	if e.EventID != 0 {
		return fmt.Sprintf("%s (event %d): %v", e.Step, e.EventID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
