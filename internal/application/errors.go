package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist or is not visible to the caller.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a catalog entry or account collides with an existing one.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a reservation collides with a live slot at write time.
	ErrConflict = errors.New("reservation already exists")
	// ErrInvalidCredentials is returned for unknown users, wrong passwords and unknown tokens.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when an inactive account tries to log in.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned for tokens past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for tokens that were logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 1 {
		for field, msg := range v.FieldErrors {
			return "validation failed: " + field + ": " + msg
		}
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Reason returns the message recorded for field.
func (v *ValidationError) Reason(field string) string {
	if v == nil {
		return ""
	}
	return v.FieldErrors[field]
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from a field map into the receiver.
func (v *ValidationError) merge(fields map[string]string) {
	for field, msg := range fields {
		v.add(field, msg)
	}
}

func rejection(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

// StorageError wraps an unexpected persistence failure. Its message is
// deliberately opaque; Unwrap exposes the cause for logging.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return "application: internal storage failure"
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
