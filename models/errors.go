package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeMissingParameter  = "MISSING_PARAMETER"
	ErrCodeLaunchFailure     = "LAUNCH_FAILURE"
	ErrCodeNavigationTimeout = "NAVIGATION_TIMEOUT"
	ErrCodeSelectorTimeout   = "SELECTOR_TIMEOUT"
	ErrCodeAutomation        = "AUTOMATION_FAILED"
	ErrCodeRateLimited       = "RATE_LIMITED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// Detail renders the message together with the wrapped cause, which is what
// API clients see.
func (e *ScrapeError) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
