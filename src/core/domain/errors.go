package domain

import (
	"errors"
	"fmt"
)

// Data-path error types. Connection and query failures always reach the caller;
// ErrCacheUnavailable stays inside the cache layer.

var (
	// ErrConnection is returned when the backing store cannot be reached.
	ErrConnection = errors.New("connection error")

	// ErrPoolExhausted is returned when no connection frees up within the acquire timeout.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrPoolClosed is returned by Acquire after shutdown.
	ErrPoolClosed = errors.New("connection pool closed")

	// ErrAlreadyReleased is returned when a connection is released twice.
	ErrAlreadyReleased = errors.New("connection already released")

	// ErrQuery is the base of every statement failure.
	ErrQuery = errors.New("query failed")

	// ErrTransaction is returned when a unit of work failed and was rolled back.
	ErrTransaction = errors.New("transaction rolled back")

	// ErrNestedTransaction is returned when a transaction is started inside another.
	ErrNestedTransaction = errors.New("nested transactions are not supported")

	// ErrCacheUnavailable marks a cache backend failure. It is never returned to
	// primary read/write paths.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps a base error with additional context.
type DomainError struct {
	// Base is the underlying error type (e.g., ErrInvalidInput)
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string

	// Cause is the lower-level error that triggered this one, if any.
	Cause error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := e.Base.Error()
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes both the base and the cause to errors.Is/As.
func (e *DomainError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Base}
	}
	return []error{e.Base, e.Cause}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewConnectionError wraps a failure to reach the backing store.
func NewConnectionError(message string, cause error) *DomainError {
	return &DomainError{
		Base:    ErrConnection,
		Message: message,
		Cause:   cause,
	}
}

// QueryError reports a failed statement. Statement holds the shape of the SQL
// text only; bound parameter values are never recorded.
type QueryError struct {
	Statement string
	SQLState  string
	Err       error
}

func (e *QueryError) Error() string {
	if e.SQLState != "" {
		return fmt.Sprintf("%s [%s] (%s): %v", ErrQuery, e.SQLState, e.Statement, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", ErrQuery, e.Statement, e.Err)
}

func (e *QueryError) Unwrap() []error {
	return []error{ErrQuery, e.Err}
}

// TransactionError is returned after a unit of work failed and rollback was
// attempted. It unwraps to ErrTransaction, the original failure and, when
// rollback itself failed, the rollback error.
type TransactionError struct {
	Err         error
	RollbackErr error
}

func (e *TransactionError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("%s: %v (rollback failed: %v)", ErrTransaction, e.Err, e.RollbackErr)
	}
	return fmt.Sprintf("%s: %v", ErrTransaction, e.Err)
}

func (e *TransactionError) Unwrap() []error {
	errs := []error{ErrTransaction, e.Err}
	if e.RollbackErr != nil {
		errs = append(errs, e.RollbackErr)
	}
	return errs
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnavailable reports errors a caller may retry later: exhausted or closed pool,
// or a lost connection.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrPoolClosed) || errors.Is(err, ErrConnection)
}

// IsQueryError checks if an error is a statement failure.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}
