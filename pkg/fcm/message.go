package fcm

import (
	"strings"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
)

const (
	// MaxBatchMessages is the most messages SendEach accepts in one call.
	MaxBatchMessages = 500

	// MaxMulticastTokens is the most device tokens of a MulticastMessage.
	MaxMulticastTokens = 500

	topicPrefix = "/topics/"
)

// Notification is the basic notification template used across all platforms.
// Optional strings are pointers: nil is left out of the request, an empty string is sent.
type Notification struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	Image *string `json:"image,omitempty"`
}

// FCMOptions are platform independent options for features provided by the FCM SDKs.
type FCMOptions struct {
	AnalyticsLabel *string `json:"analytics_label,omitempty"`
}

// Message to be sent via FCM HTTP v1 API.
// Exactly one of Token, Topic or Condition must be set,
// and at most one of Android, APNS or Webpush.
// See https://firebase.google.com/docs/reference/fcm/rest/v1/projects.messages
type Message struct {
	Token     string `json:"token,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Condition string `json:"condition,omitempty"`

	Data         map[string]string `json:"data,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Android      *AndroidConfig    `json:"android,omitempty"`
	APNS         *APNSConfig       `json:"apns,omitempty"`
	Webpush      *WebpushConfig    `json:"webpush,omitempty"`
	FCMOptions   *FCMOptions       `json:"fcm_options,omitempty"`
}

// MulticastMessage is like Message, but instead single token, it use array of tokens.
// Since target to send a message to is must be one of: token, topic or condition,
// hence you cannot set topic or condition in multicast message.
type MulticastMessage struct {
	Tokens       []string          `json:"tokens,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Android      *AndroidConfig    `json:"android,omitempty"`
	APNS         *APNSConfig       `json:"apns,omitempty"`
	Webpush      *WebpushConfig    `json:"webpush,omitempty"`
	FCMOptions   *FCMOptions       `json:"fcm_options,omitempty"`
}

// ToMessages expands the multicast message into one Message per token.
// The payload is shared between the messages, not copied.
func (m *MulticastMessage) ToMessages() []*Message {
	if m == nil {
		return nil
	}

	out := make([]*Message, 0, len(m.Tokens))
	for _, token := range m.Tokens {
		out = append(out, &Message{
			Token:        token,
			Data:         m.Data,
			Notification: m.Notification,
			Android:      m.Android,
			APNS:         m.APNS,
			Webpush:      m.Webpush,
			FCMOptions:   m.FCMOptions,
		})
	}

	return out
}

// Validate checks the tokens count, each message is validated when it is encoded.
func (m *MulticastMessage) Validate() error {
	if m == nil {
		return fcmerr.InvalidArgument("multicast message must not be nil")
	}

	if len(m.Tokens) == 0 {
		return fcmerr.InvalidArgument("multicast message must contain at least one token")
	}

	if len(m.Tokens) > MaxMulticastTokens {
		return fcmerr.InvalidArgument("multicast message may contain up to %d device tokens, got %d", MaxMulticastTokens, len(m.Tokens))
	}

	return nil
}

// Validate checks the message target, platform configs and that there is something to deliver.
func (m *Message) Validate() error {
	if m == nil {
		return fcmerr.InvalidArgument("message must not be nil")
	}

	targets := 0
	for _, target := range []string{m.Token, m.Topic, m.Condition} {
		if target != "" {
			targets++
		}
	}

	if targets != 1 {
		return fcmerr.InvalidArgument("exactly one of token, topic or condition must be specified")
	}

	if m.Topic != "" {
		if !validator.IsTopic(normalizeTopic(m.Topic)) {
			return fcmerr.InvalidArgument("malformed topic name %q", m.Topic)
		}
	}

	platforms := 0
	if m.Android != nil {
		platforms++
	}

	if m.APNS != nil {
		platforms++
	}

	if m.Webpush != nil {
		platforms++
	}

	if platforms > 1 {
		return fcmerr.InvalidArgument("at most one of android, apns or webpush config may be specified")
	}

	if len(m.Data) == 0 && m.Notification == nil && platforms == 0 && m.FCMOptions == nil {
		return fcmerr.InvalidArgument("message has no data to deliver besides its target")
	}

	if err := validateData(m.Data); err != nil {
		return err
	}

	if err := m.Android.Validate(); err != nil {
		return err
	}

	if err := m.APNS.Validate(); err != nil {
		return err
	}

	return m.Webpush.Validate()
}

// reserved data keys, see https://firebase.google.com/docs/cloud-messaging/concept-options#data_messages
var reservedDataKeys = map[string]struct{}{
	"from":         {},
	"notification": {},
	"message_type": {},
}

func validateData(data map[string]string) error {
	for k := range data {
		if _, reserved := reservedDataKeys[k]; reserved || strings.HasPrefix(k, "google.") || strings.HasPrefix(k, "gcm.") {
			return fcmerr.InvalidArgument("data key %q is reserved", k)
		}
	}

	return nil
}

func normalizeTopic(topic string) string {
	return strings.TrimPrefix(topic, topicPrefix)
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}

// String returns a pointer to v, for optional string fields.
func String(v string) *string {
	return &v
}

// Int returns a pointer to v, for optional numeric fields.
func Int(v int) *int {
	return &v
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 {
	return &v
}

// Bool returns a pointer to v, for optional flags where false must still be sent.
func Bool(v bool) *bool {
	return &v
}
