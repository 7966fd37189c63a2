package fcmerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the canonical error code of an Error.
// Values follow https://cloud.google.com/apis/design/errors#handling_errors
type Code string

const (
	CodeAuthentication     Code = "AUTHENTICATION_ERROR"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeOutOfRange         Code = "OUT_OF_RANGE"
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodePermissionDenied   Code = "PERMISSION_DENIED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeConflict           Code = "CONFLICT"
	CodeAborted            Code = "ABORTED"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeCancelled          Code = "CANCELLED"
	CodeDeadlineExceeded   Code = "DEADLINE_EXCEEDED"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeDataLoss           Code = "DATA_LOSS"
	CodeInternal           Code = "INTERNAL"
	CodeUnknown            Code = "UNKNOWN"
)

// FCM specific error codes, reported in the "details" of an error response
// with type "type.googleapis.com/google.firebase.fcm.v1.FcmError".
const (
	FCMUnregistered       = "UNREGISTERED"
	FCMQuotaExceeded      = "QUOTA_EXCEEDED"
	FCMSenderIDMismatch   = "SENDER_ID_MISMATCH"
	FCMThirdPartyAuth     = "THIRD_PARTY_AUTH_ERROR"
	FCMAPNSAuth           = "APNS_AUTH_ERROR"
	FCMInvalidArgument    = "INVALID_ARGUMENT"
	FCMUnavailable        = "UNAVAILABLE"
	FCMInternal           = "INTERNAL"
	FCMUnspecifiedErrCode = "UNSPECIFIED_ERROR"
)

// Response is a snapshot of the HTTP response that caused an Error.
// The body is already consumed, so it is kept as bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Error is the single error type returned by this module.
// Use errors.Is with the Err* sentinels to branch on the kind of failure.
type Error struct {
	Code     Code
	FCMCode  string
	Message  string
	Cause    error
	Response *Response
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Code.
// A target carrying an FCMCode only matches errors with that FCMCode too,
// so ErrUnregistered is also ErrNotFound, but not the other way around.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Code != e.Code {
		return false
	}

	return t.FCMCode == "" || t.FCMCode == e.FCMCode
}

// HTTPStatus returns the status code of the HTTP response, or 0 when the error
// did not come from an HTTP response.
func (e *Error) HTTPStatus() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

var (
	ErrAuthentication     = &Error{Code: CodeAuthentication}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
	ErrFailedPrecondition = &Error{Code: CodeFailedPrecondition}
	ErrOutOfRange         = &Error{Code: CodeOutOfRange}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated}
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied}
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists}
	ErrConflict           = &Error{Code: CodeConflict}
	ErrAborted            = &Error{Code: CodeAborted}
	ErrResourceExhausted  = &Error{Code: CodeResourceExhausted}
	ErrCancelled          = &Error{Code: CodeCancelled}
	ErrDeadlineExceeded   = &Error{Code: CodeDeadlineExceeded}
	ErrUnavailable        = &Error{Code: CodeUnavailable}
	ErrDataLoss           = &Error{Code: CodeDataLoss}
	ErrInternal           = &Error{Code: CodeInternal}
	ErrUnknown            = &Error{Code: CodeUnknown}

	// ErrUnregistered means the app instance was unregistered from FCM,
	// the token is no longer valid and a new one must be used.
	ErrUnregistered = &Error{Code: CodeNotFound, FCMCode: FCMUnregistered}

	// ErrQuotaExceeded means the sending limit was exceeded for the message target.
	ErrQuotaExceeded = &Error{Code: CodeResourceExhausted, FCMCode: FCMQuotaExceeded}

	// ErrSenderIDMismatch means the authenticated sender id differs from the
	// sender id of the registration token.
	ErrSenderIDMismatch = &Error{Code: CodePermissionDenied, FCMCode: FCMSenderIDMismatch}

	// ErrThirdPartyAuth means the APNs certificate or web push auth key was invalid or missing.
	ErrThirdPartyAuth = &Error{Code: CodeUnauthenticated, FCMCode: FCMThirdPartyAuth}
)

// New returns an Error with the code and a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap is like New but keeps cause as the underlying error.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// InvalidArgument is a shortcut used by payload validation.
func InvalidArgument(format string, args ...interface{}) *Error {
	return New(CodeInvalidArgument, format, args...)
}

// As returns err as *Error when it is one, or wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}

// CodeOf returns the Code of err, CodeUnknown for foreign errors and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	if e, ok := As(err); ok {
		return e.Code
	}

	return CodeUnknown
}

// IsRetryable reports whether err is a transient server side condition.
// This module never retries on its own.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeCancelled, CodeDeadlineExceeded, CodeUnavailable:
		return true
	default:
		return false
	}
}
