package errors

const (
	// Link errors
	ErrEndpointNotFound ErrorCode = "endpoint_not_found"
	ErrOpenFailure      ErrorCode = "open_failure"
	ErrWriteFailure     ErrorCode = "write_failure"
	ErrNotConnected     ErrorCode = "not_connected"

	// Collection errors
	ErrSourceUnavailable ErrorCode = "source_unavailable"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Operation errors
	ErrTimeout  ErrorCode = "operation_timeout"
	ErrInternal ErrorCode = "internal_error"
)

var errorMessages = map[ErrorCode]string{
	ErrEndpointNotFound:  "No serial endpoint found",
	ErrOpenFailure:       "Failed to open serial endpoint",
	ErrWriteFailure:      "Failed to write to serial endpoint",
	ErrNotConnected:      "Link is not connected",
	ErrSourceUnavailable: "Metric source unavailable",
	ErrInvalidConfig:     "Invalid configuration",
	ErrReadConfig:        "Failed to read configuration",
	ErrTimeout:           "Operation timed out",
	ErrInternal:          "Internal error occurred",
}

// GetErrorMessage returns the default message for a code.
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return string(code)
}
