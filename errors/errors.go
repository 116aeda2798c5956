package errors

// DriverError is an error that remembers which DiskoError kind produced it,
// so callers can still branch on Kind() after the message has been
// customized or a lower-level cause has been attached.
type DriverError interface {
	error
	Kind() DiskoError
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

type customDriverError struct {
	kind          DiskoError
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) Kind() DiskoError {
	return e.kind
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		kind:          e.kind,
		message:       message,
		originalError: e.originalError,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		kind:          e.kind,
		message:       e.message + ": " + err.Error(),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
