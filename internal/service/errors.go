package service

type ErrorCode string

const (
	ErrorCodeValidation  ErrorCode = "VALIDATION"
	ErrorCodeInvalidBody ErrorCode = "INVALID_BODY"
	ErrorCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrorCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrorCodeUnspecified ErrorCode = "UNSPECIFIED"
)

// Error is the service-level failure type. Message is always safe to show
// to the caller; internal detail stays in the logs.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
