package fcmerr

import (
	"net/http"
)

var knownCodes = map[Code]struct{}{
	CodeInvalidArgument:    {},
	CodeFailedPrecondition: {},
	CodeOutOfRange:         {},
	CodeUnauthenticated:    {},
	CodePermissionDenied:   {},
	CodeNotFound:           {},
	CodeAlreadyExists:      {},
	CodeConflict:           {},
	CodeAborted:            {},
	CodeResourceExhausted:  {},
	CodeCancelled:          {},
	CodeDeadlineExceeded:   {},
	CodeUnavailable:        {},
	CodeDataLoss:           {},
	CodeInternal:           {},
	CodeUnknown:            {},
}

var httpStatusCodes = map[int]Code{
	http.StatusBadRequest:          CodeInvalidArgument,
	http.StatusUnauthorized:        CodeUnauthenticated,
	http.StatusForbidden:           CodePermissionDenied,
	http.StatusNotFound:            CodeNotFound,
	http.StatusConflict:            CodeConflict,
	http.StatusPreconditionFailed:  CodeFailedPrecondition,
	http.StatusTooManyRequests:     CodeResourceExhausted,
	http.StatusInternalServerError: CodeInternal,
	http.StatusServiceUnavailable:  CodeUnavailable,
}

var fcmCodes = map[string]Code{
	FCMAPNSAuth:         CodeUnauthenticated,
	FCMThirdPartyAuth:   CodeUnauthenticated,
	FCMQuotaExceeded:    CodeResourceExhausted,
	FCMSenderIDMismatch: CodePermissionDenied,
	FCMUnregistered:     CodeNotFound,
	FCMInvalidArgument:  CodeInvalidArgument,
	FCMUnavailable:      CodeUnavailable,
	FCMInternal:         CodeInternal,
}

// CodeFromStatus maps the "status" string of a Google API error body.
// The second value is false for unknown strings.
func CodeFromStatus(status string) (Code, bool) {
	code := Code(status)
	_, ok := knownCodes[code]
	return code, ok
}

// CodeFromHTTPStatus maps an HTTP status code, falling back to CodeUnknown.
func CodeFromHTTPStatus(status int) Code {
	if code, ok := httpStatusCodes[status]; ok {
		return code
	}

	return CodeUnknown
}

// FromFCMCode maps an FCM detail error code to the Error it represents.
// APNS_AUTH_ERROR is folded into THIRD_PARTY_AUTH_ERROR.
func FromFCMCode(fcmCode string) (*Error, bool) {
	code, ok := fcmCodes[fcmCode]
	if !ok {
		return nil, false
	}

	if fcmCode == FCMAPNSAuth {
		fcmCode = FCMThirdPartyAuth
	}

	return &Error{Code: code, FCMCode: fcmCode}, true
}
