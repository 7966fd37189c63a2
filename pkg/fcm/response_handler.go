package fcm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
)

const fcmErrorType = "type.googleapis.com/google.firebase.fcm.v1.FcmError"

// errPoolTimeout is reported when no connection could be taken from the pool in time.
var errPoolTimeout = errors.New("timed out waiting for a connection from the pool")

// rawResponse is what the transport read from the wire.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *rawResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *rawResponse) snapshot() *fcmerr.Response {
	return &fcmerr.Response{
		StatusCode: r.StatusCode,
		Header:     r.Header,
		Body:       r.Body,
	}
}

type googleAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Details []struct {
		Type      string `json:"@type"`
		ErrorCode string `json:"errorCode"`
	} `json:"details"`
}

// handleSendResponse maps the response of messages:send.
func handleSendResponse(ctx context.Context, log logger.Logger, resp *rawResponse) *FCMResponse {
	if !resp.ok() {
		return &FCMResponse{Err: errorFromResponse(ctx, log, resp)}
	}

	var out struct {
		Name string `json:"name"`
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil || out.Name == "" {
		e := unexpectedResponse(ctx, log, resp)
		e.Cause = err
		return &FCMResponse{Err: e}
	}

	return &FCMResponse{MessageID: out.Name}
}

// handleTopicResponse maps the response of iid batchAdd and batchRemove.
func handleTopicResponse(ctx context.Context, log logger.Logger, resp *rawResponse) *TopicManagementResponse {
	if !resp.ok() {
		return &TopicManagementResponse{Err: errorFromResponse(ctx, log, resp)}
	}

	var out struct {
		Results []struct {
			Error string `json:"error"`
		} `json:"results"`
	}

	if err := json.Unmarshal(resp.Body, &out); err != nil || out.Results == nil {
		e := fcmerr.New(fcmerr.CodeUnknown, "Unexpected topic management response: %s", string(resp.Body))
		e.Cause = err
		e.Response = resp.snapshot()
		return &TopicManagementResponse{Err: e}
	}

	tmr := &TopicManagementResponse{}
	for i, result := range out.Results {
		if result.Error == "" {
			tmr.SuccessCount++
			continue
		}

		tmr.FailureCount++
		tmr.Errors = append(tmr.Errors, TopicManagementErrorInfo{
			Index:  i,
			Reason: topicErrorReason(result.Error),
		})
	}

	return tmr
}

// errorFromResponse maps a non 2xx response. The FCM error code in the details wins,
// then the canonical status of the body, then the HTTP status code.
func errorFromResponse(ctx context.Context, log logger.Logger, resp *rawResponse) *fcmerr.Error {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}

	if err := json.Unmarshal(resp.Body, &envelope); err != nil || len(envelope.Error) == 0 {
		return unexpectedResponse(ctx, log, resp)
	}

	// the IID service answers with {"error": "reason"}
	if bytes.HasPrefix(bytes.TrimSpace(envelope.Error), []byte(`"`)) {
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err != nil {
			return unexpectedResponse(ctx, log, resp)
		}

		return &fcmerr.Error{
			Code:     fcmerr.CodeFromHTTPStatus(resp.StatusCode),
			Message:  msg,
			Response: resp.snapshot(),
		}
	}

	var apiErr googleAPIError
	if err := json.Unmarshal(envelope.Error, &apiErr); err != nil {
		return unexpectedResponse(ctx, log, resp)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = unexpectedMessage(resp)
	}

	for _, detail := range apiErr.Details {
		if detail.Type != fcmErrorType {
			continue
		}

		if e, ok := fcmerr.FromFCMCode(detail.ErrorCode); ok {
			e.Message = msg
			e.Response = resp.snapshot()
			return e
		}
	}

	code, ok := fcmerr.CodeFromStatus(apiErr.Status)
	if !ok {
		code = fcmerr.CodeFromHTTPStatus(resp.StatusCode)
	}

	return &fcmerr.Error{
		Code:     code,
		Message:  msg,
		Response: resp.snapshot(),
	}
}

func unexpectedResponse(ctx context.Context, log logger.Logger, resp *rawResponse) *fcmerr.Error {
	log.Warn(ctx, "unexpected http response",
		logger.KV("status", resp.StatusCode),
		logger.KV("body", string(resp.Body)),
	)

	return &fcmerr.Error{
		Code:     fcmerr.CodeUnknown,
		Message:  unexpectedMessage(resp),
		Response: resp.snapshot(),
	}
}

func unexpectedMessage(resp *rawResponse) string {
	return fmt.Sprintf("Unexpected HTTP response with status: %d; body: %s", resp.StatusCode, resp.Body)
}

// errorFromTransport classifies a failure where no HTTP response was received.
func errorFromTransport(err error) *fcmerr.Error {
	var opErr *net.OpError

	switch {
	case errors.Is(err, errPoolTimeout):
		return fcmerr.Wrap(fcmerr.CodeDeadlineExceeded, err, "Timed out while waiting for a connection")
	case errors.Is(err, context.Canceled):
		return fcmerr.Wrap(fcmerr.CodeCancelled, err, "Request was cancelled")
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return fcmerr.Wrap(fcmerr.CodeDeadlineExceeded, err, "Timed out while making an API call")
	case errors.As(err, &opErr) && opErr.Op == "dial",
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return fcmerr.Wrap(fcmerr.CodeUnavailable, err, "Failed to establish a connection")
	default:
		return fcmerr.Wrap(fcmerr.CodeUnknown, err, "Unknown error while making a remote service call")
	}
}

// isTimeout looks for a timeout anywhere in the chain, *url.Error hides the one of the socket.
func isTimeout(err error) bool {
	for err != nil {
		if t, ok := err.(interface{ Timeout() bool }); ok && t.Timeout() {
			return true
		}

		err = errors.Unwrap(err)
	}

	return false
}
