package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios
var (
	// Routing errors
	ErrUnknownPersona    = errors.New("unknown persona")
	ErrMalformedDecision = errors.New("malformed routing decision")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrEmptyResponse      = errors.New("service returned an empty response")

	// Startup errors
	ErrConfiguration   = errors.New("invalid configuration")
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrNoPersonalities = errors.New("no personalities registered")

	// Storage errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrDatabaseQuery      = errors.New("database query failed")
)

// ServiceError represents a failed call to the decision or generation service
type ServiceError struct {
	Service    string // "decision" or "generation"
	Model      string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s service call failed for model %s (status %d): %v",
			e.Service, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s service call failed for model %s: %v",
		e.Service, e.Model, e.Err)
}

// Unwrap exposes both the underlying cause and ErrServiceUnavailable so
// callers can match either with errors.Is.
func (e *ServiceError) Unwrap() []error {
	return []error{ErrServiceUnavailable, e.Err}
}

// NewServiceError wraps err as a service failure
func NewServiceError(service, model string, statusCode int, err error) error {
	return &ServiceError{
		Service:    service,
		Model:      model,
		StatusCode: statusCode,
		Err:        err,
	}
}

// DatabaseError represents a database operation error with context
type DatabaseError struct {
	Op    string // Operation that failed (e.g., "insert", "query")
	Table string
	Err   error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s operation on %s: %v", e.Op, e.Table, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new database error
func NewDatabaseError(op, table string, err error) error {
	return &DatabaseError{
		Op:    op,
		Table: table,
		Err:   err,
	}
}

// ValidationError represents a configuration or input validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s (value: %v): %s",
			e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes every ValidationError a configuration error
func (e *ValidationError) Unwrap() error {
	return ErrConfiguration
}

// IsServiceUnavailable reports whether err came from a failed external call
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

// IsConfiguration reports whether err is fatal startup misconfiguration
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrMissingAPIKey) ||
		errors.Is(err, ErrNoPersonalities)
}

// IsRetryable determines if an error may succeed when the user tries again
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrDatabaseConnection)
}

// WrapWithContext adds context to an error
func WrapWithContext(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
