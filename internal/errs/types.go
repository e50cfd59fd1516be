package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// MisconfiguredError signals a missing required credential or setting,
// e.g. no CRM API token; the request cannot be served at all.
type MisconfiguredError struct {
	ErrorMessage
}

// DatabaseError wraps settings-backend failures.
type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// UpstreamError signals that the CRM API failed after every fallback
// was exhausted. Transient marks rate limits and timeouts.
type UpstreamError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewMisconfiguredError(message string) *MisconfiguredError {
	return &MisconfiguredError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewUpstreamError(service, message string, transient bool, err error) *UpstreamError {
	return &UpstreamError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}
