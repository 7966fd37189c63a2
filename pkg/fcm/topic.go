package fcm

import (
	"context"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/tracer"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MaxTopicManagementTokens is the most registration tokens of one subscribe or unsubscribe call.
const MaxTopicManagementTokens = 1000

// SubscribeToTopic subscribes the devices to the topic.
// The topic may be given with or without the "/topics/" prefix.
func (c *Client) SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.manageTopicSubscription(ctx, tokens, topic, true)
}

// UnsubscribeFromTopic unsubscribes the devices from the topic.
func (c *Client) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.manageTopicSubscription(ctx, tokens, topic, false)
}

func (c *Client) manageTopicSubscription(ctx context.Context, tokens []string, topic string, subscribe bool) (resp *TopicManagementResponse, err error) {
	path := iidUnsubscribe
	spanName := "fcm.UnsubscribeFromTopic"
	if subscribe {
		path = iidSubscribePath
		spanName = "fcm.SubscribeToTopic"
	}

	ctx, span := tracer.StartSpan(ctx, spanName, trace.WithAttributes(
		attribute.String("fcm.topic", topic),
		attribute.Int("fcm.tokens", len(tokens)),
	))
	defer func() {
		tracer.RecordError(span, err)
		if resp != nil && resp.Err != nil {
			tracer.RecordError(span, resp.Err)
		}

		span.End()
	}()

	if err = validateTopicManagement(tokens, topic); err != nil {
		return nil, err
	}

	accessToken, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"to":                  topicPrefix + normalizeTopic(topic),
		"registration_tokens": tokens,
	}

	raw, e := c.post(ctx, c.iidBaseURL+path, accessToken, body, true)
	if e != nil {
		return &TopicManagementResponse{Err: e}, nil
	}

	return handleTopicResponse(ctx, c.log, raw), nil
}

func validateTopicManagement(tokens []string, topic string) error {
	if len(tokens) == 0 {
		return fcmerr.InvalidArgument("registration tokens list must not be empty")
	}

	if len(tokens) > MaxTopicManagementTokens {
		return fcmerr.InvalidArgument("registration tokens list must not have more than %d elements, got %d", MaxTopicManagementTokens, len(tokens))
	}

	for i, token := range tokens {
		if token == "" {
			return fcmerr.InvalidArgument("registration token at index %d must be a non-empty string", i)
		}
	}

	if topic = normalizeTopic(topic); !validator.IsTopic(topic) {
		return fcmerr.InvalidArgument("malformed topic name %q", topic)
	}

	return nil
}
