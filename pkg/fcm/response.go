package fcm

import (
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
)

// FCMResponse is the outcome of sending one message.
// MessageID is the resource name FCM assigned, e.g. projects/myproject/messages/0:1500415314455276%31bd1c9631bd1c96.
type FCMResponse struct {
	MessageID string        `json:"message_id,omitempty"`
	Err       *fcmerr.Error `json:"error,omitempty"`
}

// Success reports whether FCM accepted the message.
func (r *FCMResponse) Success() bool {
	return r != nil && r.Err == nil && r.MessageID != ""
}

// FCMBatchResponse holds one FCMResponse per message, in the order the messages were given.
type FCMBatchResponse struct {
	Responses []*FCMResponse `json:"responses"`
}

func (b *FCMBatchResponse) SuccessCount() int {
	if b == nil {
		return 0
	}

	n := 0
	for _, resp := range b.Responses {
		if resp.Success() {
			n++
		}
	}

	return n
}

func (b *FCMBatchResponse) FailureCount() int {
	if b == nil {
		return 0
	}

	return len(b.Responses) - b.SuccessCount()
}

// TopicManagementErrorInfo is the failure of one registration token in a topic management request.
type TopicManagementErrorInfo struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// TopicManagementResponse is the outcome of a subscribe or unsubscribe request.
// Err is set when the request as a whole failed, then the counters are zero.
type TopicManagementResponse struct {
	SuccessCount int                        `json:"success_count"`
	FailureCount int                        `json:"failure_count"`
	Errors       []TopicManagementErrorInfo `json:"errors,omitempty"`
	Err          *fcmerr.Error              `json:"error,omitempty"`
}

// Success reports whether the request went through, individual tokens may still have failed.
func (r *TopicManagementResponse) Success() bool {
	return r != nil && r.Err == nil
}

// topic management error reasons, keyed by the error string returned by the IID service.
var topicErrorReasons = map[string]string{
	"INVALID_ARGUMENT": "invalid-argument",
	"NOT_FOUND":        "registration-token-not-registered",
	"INTERNAL":         "internal-error",
	"TOO_MANY_TOPICS":  "too-many-topics",
}

const unknownTopicErrorReason = "unknown-error"

func topicErrorReason(err string) string {
	if reason, ok := topicErrorReasons[err]; ok {
		return reason
	}

	return unknownTopicErrorReason
}
