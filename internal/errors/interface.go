package errors

// ErrorCode identifies a failure kind. Callers branch on codes, not on messages.
type ErrorCode string

// Error is an error carrying an ErrorCode and an optional cause.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	Unwrap() error
}
