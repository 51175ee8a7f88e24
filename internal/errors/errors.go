package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeHostCall     ErrCode = "HOST_CALL"
	ErrCodeRateLimited  ErrCode = "RATE_LIMITED"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeConfig       ErrCode = "CONFIG"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewHostCallError wraps a failed call to the repository host.
func NewHostCallError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeHostCall,
		Message: message,
		Err:     err,
	}
}

// NewRateLimitedError creates a new rate limited error
func NewRateLimitedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
		Err:     err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewConfigError creates a new configuration error
func NewConfigError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// IsRateLimited checks if the error is a rate limited error
func IsRateLimited(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeRateLimited
	}
	return false
}

// IsHostCall checks if the error came from a repository host call
func IsHostCall(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeHostCall || appErr.Code == ErrCodeRateLimited
	}
	return false
}
