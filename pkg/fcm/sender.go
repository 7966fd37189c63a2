package fcm

import (
	"context"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
)

// Sender is the behavior of Client, for code that wants to swap it in tests.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*FCMResponse, error)
	SendDryRun(ctx context.Context, msg *Message) (*FCMResponse, error)
	SendEach(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error)
	SendEachDryRun(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error)
	SendEachForMulticast(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error)
	SendEachForMulticastDryRun(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error)
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error)
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error)
	Close() error
}

// Noop validates and encodes the way Client does, but never talks to FCM.
// Every valid message is reported as delivered with the message id "noop".
type Noop struct{}

var _ Sender = (*Noop)(nil)

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Send(_ context.Context, msg *Message) (*FCMResponse, error) {
	if _, err := EncodeMessage(msg, false); err != nil {
		return nil, err
	}

	return &FCMResponse{MessageID: "noop"}, nil
}

func (n *Noop) SendDryRun(ctx context.Context, msg *Message) (*FCMResponse, error) {
	return n.Send(ctx, msg)
}

func (n *Noop) SendEach(_ context.Context, msgs []*Message) (*FCMBatchResponse, error) {
	if len(msgs) == 0 || len(msgs) > MaxBatchMessages {
		return nil, fcmerr.InvalidArgument("batch must contain 1 to %d messages, got %d", MaxBatchMessages, len(msgs))
	}

	batch := &FCMBatchResponse{Responses: make([]*FCMResponse, len(msgs))}
	for i, msg := range msgs {
		if _, err := EncodeMessage(msg, false); err != nil {
			e, _ := fcmerr.As(err)
			batch.Responses[i] = &FCMResponse{Err: e}
			continue
		}

		batch.Responses[i] = &FCMResponse{MessageID: "noop"}
	}

	return batch, nil
}

func (n *Noop) SendEachDryRun(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error) {
	return n.SendEach(ctx, msgs)
}

func (n *Noop) SendEachForMulticast(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return n.SendEach(ctx, msg.ToMessages())
}

func (n *Noop) SendEachForMulticastDryRun(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error) {
	return n.SendEachForMulticast(ctx, msg)
}

func (n *Noop) SubscribeToTopic(_ context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	if err := validateTopicManagement(tokens, topic); err != nil {
		return nil, err
	}

	return &TopicManagementResponse{SuccessCount: len(tokens)}, nil
}

func (n *Noop) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return n.SubscribeToTopic(ctx, tokens, topic)
}

func (n *Noop) Close() error {
	return nil
}
